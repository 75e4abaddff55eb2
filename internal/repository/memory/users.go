package memory

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

type userRepo struct {
	binding
}

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	return r.with(func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return repository.UniqueViolation("users_email_key")
			}
		}
		now := r.now()
		user.ID = newID()
		user.CreatedAt = now
		user.UpdatedAt = now
		st.users[user.ID] = *user
		st.userOrder = append(st.userOrder, user.ID)
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = &user
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(st *state) error {
		for _, user := range st.users {
			if strings.EqualFold(user.Email, email) {
				u := user
				out = &u
				return nil
			}
		}
		return pgx.ErrNoRows
	})
	return out, err
}

func (r *userRepo) List(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.with(func(st *state) error {
		out = make([]domain.User, 0, len(st.userOrder))
		for _, id := range st.userOrder {
			out = append(out, st.users[id])
		}
		return nil
	})
	return out, err
}

func (r *userRepo) ExistingIDs(_ context.Context, ids []string) ([]string, error) {
	var found []string
	err := r.with(func(st *state) error {
		for _, id := range ids {
			if _, ok := st.users[id]; ok {
				found = append(found, id)
			}
		}
		return nil
	})
	return found, err
}

func (r *userRepo) SetRefreshToken(_ context.Context, id string, token *string) error {
	return r.with(func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return pgx.ErrNoRows
		}
		if token != nil {
			t := *token
			user.RefreshToken = &t
		} else {
			user.RefreshToken = nil
		}
		user.UpdatedAt = r.now()
		st.users[id] = user
		return nil
	})
}
