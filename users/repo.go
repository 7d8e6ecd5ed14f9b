package users

import "context"

type UsersListResponse struct {
	Users  []*User
	Total  int
	Offset int
	Limit  int
}

type UserRepo interface {
	Upsert(ctx context.Context, user *User) error
	Delete(ctx context.Context, email string) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, offset, limit int) (UsersListResponse, error)
	Count(ctx context.Context) (int, error)
}
