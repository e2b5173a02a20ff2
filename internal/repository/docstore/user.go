package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"

	"hackmate/internal/model"
)

type userRepository struct {
	client *firestore.Client
}

func (r *userRepository) col() *firestore.CollectionRef {
	return r.client.Collection(colUsers)
}

func decodeUser(snap *firestore.DocumentSnapshot) (*model.User, error) {
	var u model.User
	if err := snap.DataTo(&u); err != nil {
		return nil, err
	}
	u.ID = snap.Ref.ID
	return &u, nil
}

// Create checks email uniqueness and writes the user in one transaction.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(r.col().Where("email", "==", u.Email).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return model.ErrEmailAlreadyExists
		}
		return tx.Create(r.col().Doc(u.ID), u)
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailAlreadyExists) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return decodeUser(snap)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := collect(r.col().Where("email", "==", email).Limit(1).Documents(ctx), decodeUser)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, model.ErrUserNotFound
	}
	return users[0], nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	snaps, err := r.col().Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, fmt.Errorf("check email existence: %w", err)
	}
	return len(snaps) > 0, nil
}

func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	_, err := r.col().Doc(u.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: u.Name},
		{Path: "github", Value: u.Github},
		{Path: "avatarUrl", Value: u.AvatarURL},
		{Path: "privacy", Value: u.Privacy},
		{Path: "skills", Value: []string(u.Skills)},
		{Path: "updatedAt", Value: u.UpdatedAt},
	})
	if err != nil {
		if isNotFound(err) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHashed string) error {
	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{{Path: "passwordHashed", Value: passwordHashed}})
	if err != nil {
		if isNotFound(err) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Count runs a server-side COUNT aggregation.
func (r *userRepository) Count(ctx context.Context) (int, error) {
	res, err := r.col().NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count users: unexpected result %T", res["all"])
	}
	return int(v.GetIntegerValue()), nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.col().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
