package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
)

type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}}
}

func (f *fakeUserRepo) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	for id, u := range f.users {
		if u.Email == user.Email && id != user.ID {
			return nil, ports.ErrEmailTaken
		}
	}
	copy := *user
	if copy.ID == 0 {
		f.nextID++
		copy.ID = f.nextID
	}
	f.users[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, ports.ErrNotFound
}

func (f *fakeUserRepo) List(_ context.Context) ([]*domain.User, error) {
	var list []*domain.User
	for _, u := range f.users {
		copy := *u
		list = append(list, &copy)
	}
	return list, nil
}

func TestCreateAndGetUser(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	created, err := svc.CreateUser(context.Background(), " Ana ", "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, "Ana", created.Name)

	got, err := svc.GetUser(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", got.Email)
}

func TestCreateUser_Validation(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	_, err := svc.CreateUser(context.Background(), "", "ana@example.com")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrEmptyName)
	_, err = svc.CreateUser(context.Background(), "Ana", "not-an-email")
	require.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc := NewService(newFakeUserRepo())
	_, err := svc.CreateUser(context.Background(), "Ana", "ana@example.com")
	require.NoError(t, err)
	_, err = svc.CreateUser(context.Background(), "Other", "ana@example.com")
	require.ErrorIs(t, err, ports.ErrEmailTaken)
}

func TestUpdateUser(t *testing.T) {
	svc := NewService(newFakeUserRepo())
	created, err := svc.CreateUser(context.Background(), "Ana", "ana@example.com")
	require.NoError(t, err)

	updated, err := svc.UpdateUser(context.Background(), created.ID, "Ana Maria", "ana.maria@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "ana.maria@example.com", updated.Email)

	_, err = svc.UpdateUser(context.Background(), 99, "x", "x@example.com")
	require.ErrorIs(t, err, ports.ErrNotFound)
}
