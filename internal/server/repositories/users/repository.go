package users

import (
	"context"

	"github.com/loginchat/authserver/internal/server/models"
)

// EmailUniqueConstraint names the unique index on users.email.
const EmailUniqueConstraint = "users_email_key"

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
