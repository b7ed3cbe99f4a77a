package books

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tinoosan/microfin/internal/auth"
	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/ident"
	"github.com/tinoosan/microfin/internal/ledger"
	"github.com/tinoosan/microfin/internal/slug"
)

type BranchInput struct {
	Name            string
	Address         string
	InitialCapital  decimal.Decimal
	DefaultLoanRate decimal.Decimal
	DefaultDPSRate  decimal.Decimal
	DefaultFDRRate  decimal.Decimal
}

type UserInput struct {
	Username string
	Password string
	Name     string
	Role     ledger.UserRole
	BranchID string
}

const minPasswordLen = 4

// AddBranch creates a branch. Admin only.
func (b *Books) AddBranch(ctx context.Context, actor *ledger.UserAccount, in BranchInput) (Result, error) {
	return b.apply(ctx, "add_branch", actor, func(st *ledger.State, u ledger.UserAccount, _ time.Time) (Result, error) {
		if !u.IsAdmin() {
			return Result{}, fmt.Errorf("only admins add branches: %w", errs.ErrForbidden)
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return Result{}, fmt.Errorf("branch name is required: %w", errs.ErrInvalid)
		}
		for _, d := range []decimal.Decimal{in.InitialCapital, in.DefaultLoanRate, in.DefaultDPSRate, in.DefaultFDRRate} {
			if d.IsNegative() {
				return Result{}, fmt.Errorf("capital and rates must not be negative: %w", errs.ErrInvalid)
			}
		}
		for _, existing := range st.Branches {
			if strings.EqualFold(existing.Name, name) {
				return Result{}, fmt.Errorf("branch %q already exists: %w", name, errs.ErrConflict)
			}
		}
		id := string(ident.Branch) + "_" + slug.Slugify(name)
		if id == string(ident.Branch)+"_" || st.HasID(id) {
			id = b.ids.New(ident.Branch)
		}
		st.Branches = append(st.Branches, ledger.Branch{
			ID:              id,
			Name:            name,
			Address:         strings.TrimSpace(in.Address),
			InitialCapital:  in.InitialCapital,
			DefaultLoanRate: in.DefaultLoanRate,
			DefaultDPSRate:  in.DefaultDPSRate,
			DefaultFDRRate:  in.DefaultFDRRate,
		})
		return Result{ID: id, Message: "Branch added"}, nil
	})
}

// AddUser creates an operator account bound to a branch. Admin only.
func (b *Books) AddUser(ctx context.Context, actor *ledger.UserAccount, in UserInput) (Result, error) {
	// bcrypt is slow; hash before taking the lock
	hash, err := hashPassword(in.Password)
	if err != nil {
		return Result{}, err
	}
	return b.apply(ctx, "add_user", actor, func(st *ledger.State, u ledger.UserAccount, _ time.Time) (Result, error) {
		if !u.IsAdmin() {
			return Result{}, fmt.Errorf("only admins add users: %w", errs.ErrForbidden)
		}
		username := slug.Username(in.Username)
		if username == "" {
			return Result{}, fmt.Errorf("username %q: %w", in.Username, errs.ErrInvalid)
		}
		if _, taken := st.UserByUsername(username); taken {
			return Result{}, fmt.Errorf("username %q is taken: %w", username, errs.ErrConflict)
		}
		if !in.Role.Valid() {
			return Result{}, fmt.Errorf("role %q: %w", in.Role, errs.ErrInvalid)
		}
		if _, ok := st.Branch(in.BranchID); !ok {
			return Result{}, fmt.Errorf("branch %q: %w", in.BranchID, errs.ErrNotFound)
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = username
		}
		nu := ledger.UserAccount{
			ID:           b.ids.New(ident.User),
			Username:     username,
			PasswordHash: hash,
			Name:         name,
			Role:         in.Role,
			BranchID:     in.BranchID,
		}
		st.Users = append(st.Users, nu)
		return Result{ID: nu.ID, Message: "User added"}, nil
	})
}

// ResetPassword replaces an operator's password. Admin only. This is also how an
// account migrated without a usable password is brought back.
func (b *Books) ResetPassword(ctx context.Context, actor *ledger.UserAccount, userID, password string) (Result, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return Result{}, err
	}
	return b.apply(ctx, "reset_password", actor, func(st *ledger.State, u ledger.UserAccount, _ time.Time) (Result, error) {
		if !u.IsAdmin() {
			return Result{}, fmt.Errorf("only admins reset passwords: %w", errs.ErrForbidden)
		}
		i := -1
		for j := range st.Users {
			if st.Users[j].ID == userID {
				i = j
				break
			}
		}
		if i < 0 {
			return Result{}, fmt.Errorf("user %q: %w", userID, errs.ErrNotFound)
		}
		users := append([]ledger.UserAccount(nil), st.Users...)
		users[i].PasswordHash = hash
		st.Users = users
		return Result{ID: userID, Message: "Password updated"}, nil
	})
}

// SetClientStatus moves a client between ACTIVE, PENDING and CLOSED.
func (b *Books) SetClientStatus(ctx context.Context, actor *ledger.UserAccount, clientID string, status ledger.ClientStatus) (Result, error) {
	return b.apply(ctx, "set_client_status", actor, func(st *ledger.State, u ledger.UserAccount, _ time.Time) (Result, error) {
		idx := -1
		for i := range st.Clients {
			if st.Clients[i].ID == clientID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Result{}, fmt.Errorf("client %q: %w", clientID, errs.ErrNotFound)
		}
		if err := sameBranch(u, st.Clients[idx].BranchID); err != nil {
			return Result{}, err
		}
		if !status.Valid() {
			return Result{}, fmt.Errorf("client status %q: %w", status, errs.ErrInvalid)
		}
		clients := append([]ledger.Client(nil), st.Clients...)
		clients[idx].Status = status
		st.Clients = clients
		return Result{ID: clientID, Message: "Client status updated"}, nil
	})
}

// Login checks a username and password. Unknown users and wrong passwords both yield
// errs.ErrUnauthenticated.
func (b *Books) Login(ctx context.Context, username, password string) (ledger.UserAccount, error) {
	if err := ctx.Err(); err != nil {
		return ledger.UserAccount{}, err
	}
	b.mu.Lock()
	u, ok := b.state.UserByUsername(slug.Username(username))
	b.mu.Unlock()
	if !ok || u.PasswordHash == "" {
		return ledger.UserAccount{}, errs.ErrUnauthenticated
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return ledger.UserAccount{}, err
	}
	return u, nil
}

// User looks up an operator by id.
func (b *Books) User(_ context.Context, id string) (ledger.UserAccount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.state.User(id)
	if !ok {
		return ledger.UserAccount{}, fmt.Errorf("user %q: %w", id, errs.ErrNotFound)
	}
	return u, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, errs.ErrInvalid)
	}
	if len(password) > auth.MaxPasswordLen {
		return "", fmt.Errorf("password must be at most %d bytes: %w", auth.MaxPasswordLen, errs.ErrInvalid)
	}
	return auth.HashPassword(password)
}
