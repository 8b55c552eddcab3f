package electric

import (
	"context"
	"time"

	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/gateway"
	"github.com/gridledger/electric/lib/keys"
	"github.com/gridledger/electric/lib/wallet"
)

// UserModule registers and looks up users.
type UserModule struct {
	module
}

// NewUserModule creates a user module on session. A timeout <= 0 selects DefaultTimeout.
func NewUserModule(session *gateway.Session, timeout time.Duration) *UserModule {
	return &UserModule{module: newModule("user", session, timeout)}
}

// UserInput is the payload of CreateUser.
type UserInput struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// StatusResult is a success without payload.
type StatusResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// UsersResult lists user documents with their keys.
type UsersResult struct {
	Code  int              `json:"code"`
	Users []contract.Entry `json:"users"`
}

// UserResult holds one user document.
type UserResult struct {
	Code int           `json:"code"`
	User contract.User `json:"user"`
}

// CheckUserRegistered reports whether the identity of the module is enrolled in the wallet.
func (m *UserModule) CheckUserRegistered(_ context.Context) (*StatusResult, error) {
	ok, err := m.session.Registered()
	if err != nil || !ok {
		if err == nil {
			err = &gateway.ConnectivityError{Label: m.session.Label(), Err: wallet.ErrIdentityNotFound}
		}
		return nil, fail("User not registered", err)
	}
	return &StatusResult{Code: 1, Message: "User registered"}, nil
}

// GetAllUsers returns every user document.
func (m *UserModule) GetAllUsers(ctx context.Context) (*UsersResult, error) {
	r := keys.UserRange()
	raw, err := m.evaluate(ctx, contract.FnQueryAllUsers, r.Start, r.End)
	if err != nil {
		return nil, fail("Failed to get user data", err)
	}
	users, err := decode[[]contract.Entry](raw)
	if err != nil {
		return nil, fail("Failed to get user data", err)
	}
	return &UsersResult{Code: 1, Users: users}, nil
}

// GetUser returns the document of userID.
func (m *UserModule) GetUser(ctx context.Context, userID string) (*UserResult, error) {
	if err := keys.ValidateID(userID); err != nil {
		return nil, fail("Failed to get user data", invalid("userId: %v", err))
	}
	raw, err := m.evaluate(ctx, contract.FnQueryUser, userID)
	if err != nil {
		return nil, fail("Failed to get user data", err)
	}
	user, err := decode[contract.User](raw)
	if err != nil {
		return nil, fail("Failed to get user data", err)
	}
	return &UserResult{Code: 1, User: user}, nil
}

// CreateUser registers a user. userId and userName are required and checked
// before the ledger is contacted.
func (m *UserModule) CreateUser(ctx context.Context, in UserInput) (*UserResult, error) {
	if in.UserID == "" || in.UserName == "" {
		log.Errorf("userId and userName not found: createUser")
		return nil, fail("Failed to create user", invalid("userId and userName are required"))
	}
	if err := keys.ValidateID(in.UserID); err != nil {
		return nil, fail("Failed to create user", invalid("userId: %v", err))
	}

	raw, err := m.submit(ctx, contract.FnCreateUser, in.UserID, in.UserName)
	if err != nil {
		return nil, fail("Failed to create user", err)
	}
	user, err := decode[contract.User](raw)
	if err != nil || user.UserID == "" {
		// a gateway may acknowledge without returning the document
		user = contract.User{UserID: in.UserID, UserName: in.UserName, DocType: contract.DocTypeUser}
	}
	return &UserResult{Code: 1, User: user}, nil
}
