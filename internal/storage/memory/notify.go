package memory

import (
	"context"

	"github.com/google/uuid"

	notifyapp "storefront/internal/notify/application"
	notifydomain "storefront/internal/notify/domain"
)

func (f *FlagStore) Flag(ctx context.Context, name string) (notifydomain.FeatureFlag, error) {
	txn := f.s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First("flags", "id", name)
	if err != nil {
		return notifydomain.FeatureFlag{}, err
	}
	if raw == nil {
		return notifydomain.FeatureFlag{}, notifyapp.ErrFlagNotFound
	}
	rec := raw.(*flagRec)
	return notifydomain.FeatureFlag{
		Name:        rec.Name,
		Enabled:     rec.Enabled,
		TargetGroup: rec.TargetGroup,
		Recipients:  append([]string(nil), rec.Recipients...),
	}, nil
}

func (g *Groups) IsMember(ctx context.Context, userID uuid.UUID, group string) (bool, error) {
	txn := g.s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First("memberships", "id", group, userID.String())
	if err != nil {
		return false, err
	}
	return raw != nil, nil
}

// UpsertFlag seeds a feature flag. Used at startup in the in-memory mode
// and by tests.
func (s *Store) UpsertFlag(flag notifydomain.FeatureFlag) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	err := txn.Insert("flags", &flagRec{
		Name:        flag.Name,
		Enabled:     flag.Enabled,
		TargetGroup: flag.TargetGroup,
		Recipients:  append([]string(nil), flag.Recipients...),
	})
	if err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// AddMember seeds a group membership.
func (s *Store) AddMember(group string, userID uuid.UUID) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	err := txn.Insert("memberships", &membershipRec{Group: group, UserID: userID.String()})
	if err != nil {
		return err
	}
	txn.Commit()
	return nil
}
