package domain

type OrderSubmitted struct {
	OrderID    string               `json:"order_id"`
	CustomerID string               `json:"customer_id"`
	Total      string               `json:"total"`
	Items      []OrderSubmittedItem `json:"items"`
}

type OrderSubmittedItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int32  `json:"quantity"`
}

func NewOrderSubmitted(o Order) OrderSubmitted {
	items := make([]OrderSubmittedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderSubmittedItem{
			ProductID: it.ProductID.String(),
			Name:      it.Name,
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity,
		})
	}
	return OrderSubmitted{
		OrderID:    o.ID.String(),
		CustomerID: o.CustomerID.String(),
		Total:      o.Total.String(),
		Items:      items,
	}
}
