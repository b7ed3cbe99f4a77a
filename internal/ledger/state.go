package ledger

// State is the whole record store. Collections are append-only except for the status
// transitions and the bank balance cache performed by the mutation operations.
type State struct {
	Branches     []Branch      `json:"branches"`
	BankAccounts []BankAccount `json:"bank_accounts"`
	Clients      []Client      `json:"clients"`
	Loans        []Loan        `json:"loans"`
	DPS          []DPS         `json:"dps"`
	FDR          []FDR         `json:"fdr"`
	Transactions []Transaction `json:"transactions"`
	Users        []UserAccount `json:"users"`
}

// Clone returns a deep copy so callers can hand the state to another goroutine.
func (s State) Clone() State {
	return State{
		Branches:     cloneSlice(s.Branches),
		BankAccounts: cloneSlice(s.BankAccounts),
		Clients:      cloneSlice(s.Clients),
		Loans:        cloneSlice(s.Loans),
		DPS:          cloneSlice(s.DPS),
		FDR:          cloneSlice(s.FDR),
		Transactions: cloneSlice(s.Transactions),
		Users:        cloneSlice(s.Users),
	}
}

// Normalize replaces nil collections with empty ones so encoded snapshots never carry null.
func (s *State) Normalize() {
	if s.Branches == nil {
		s.Branches = []Branch{}
	}
	if s.BankAccounts == nil {
		s.BankAccounts = []BankAccount{}
	}
	if s.Clients == nil {
		s.Clients = []Client{}
	}
	if s.Loans == nil {
		s.Loans = []Loan{}
	}
	if s.DPS == nil {
		s.DPS = []DPS{}
	}
	if s.FDR == nil {
		s.FDR = []FDR{}
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Users == nil {
		s.Users = []UserAccount{}
	}
}

func (s State) Branch(id string) (Branch, bool) {
	for _, b := range s.Branches {
		if b.ID == id {
			return b, true
		}
	}
	return Branch{}, false
}

func (s State) Client(id string) (Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

func (s State) User(id string) (UserAccount, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return UserAccount{}, false
}

func (s State) UserByUsername(username string) (UserAccount, bool) {
	for _, u := range s.Users {
		if u.Username == username {
			return u, true
		}
	}
	return UserAccount{}, false
}

// BankAccountIndex returns the slice position of an account or -1.
func (s State) BankAccountIndex(id string) int {
	for i := range s.BankAccounts {
		if s.BankAccounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) DPSIndex(id string) int {
	for i := range s.DPS {
		if s.DPS[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) FDRIndex(id string) int {
	for i := range s.FDR {
		if s.FDR[i].ID == id {
			return i
		}
	}
	return -1
}

// HasProduct reports whether id names a loan, DPS or FDR.
func (s State) HasProduct(id string) bool {
	_, ok := s.ProductBranch(id)
	return ok
}

// ProductBranch returns the branch of the loan, DPS or FDR with the given id.
func (s State) ProductBranch(id string) (string, bool) {
	for _, l := range s.Loans {
		if l.ID == id {
			return l.BranchID, true
		}
	}
	if i := s.DPSIndex(id); i >= 0 {
		return s.DPS[i].BranchID, true
	}
	if i := s.FDRIndex(id); i >= 0 {
		return s.FDR[i].BranchID, true
	}
	return "", false
}

// HasID reports whether any record of any collection already uses id.
func (s State) HasID(id string) bool {
	if _, ok := s.Branch(id); ok {
		return true
	}
	if _, ok := s.Client(id); ok {
		return true
	}
	if _, ok := s.User(id); ok {
		return true
	}
	if s.BankAccountIndex(id) >= 0 || s.HasProduct(id) {
		return true
	}
	for _, tx := range s.Transactions {
		if tx.ID == id {
			return true
		}
	}
	return false
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
