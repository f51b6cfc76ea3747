package repositories

import (
	"context"
	"database/sql"

	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db}
}

// FindByID returns nil without error when no such user exists.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {

	var user entities.User

	err := r.db.QueryRowxContext(ctx, constants.GetUserByID, id).StructScan(&user)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

