package record

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Budget field names.
const (
	BudgetTitle       = "title"
	BudgetDescription = "description"
	BudgetAmount      = "amount"
	BudgetCategory    = "category"
	BudgetUserID      = "userId"
	BudgetApproved    = "approved"
)

// ErrInvalidBudget is returned by Budget.Validate.
var ErrInvalidBudget = errors.New("invalid budget")

// Budget is a spending request that a manager approves or revokes.
type Budget struct {
	ID          string    `json:"id"                    yaml:"id,omitempty"`
	Title       string    `json:"title"                 yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Amount      float64   `json:"amount"                yaml:"amount"`
	Category    string    `json:"category,omitempty"    yaml:"category,omitempty"`
	UserID      string    `json:"userId,omitempty"      yaml:"user_id,omitempty"`
	Approved    bool      `json:"approved"              yaml:"approved,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"    yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"    yaml:"updated_at,omitempty"`
}

// RecordID implements Keyed.
func (b Budget) RecordID() string {
	return b.ID
}

// Validate checks the title and amount.
func (b Budget) Validate() error {
	if b.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidBudget)
	}
	if math.IsNaN(b.Amount) || math.IsInf(b.Amount, 0) || b.Amount < 0 {
		return fmt.Errorf("%w: amount must be a non-negative number, got %v", ErrInvalidBudget, b.Amount)
	}
	return nil
}

// ToRecord converts the budget into a store document.
func (b Budget) ToRecord() Record {
	r := Record{
		BudgetTitle:    b.Title,
		BudgetAmount:   b.Amount,
		BudgetApproved: b.Approved,
	}
	if b.ID != "" {
		r[FieldID] = b.ID
	}
	putString(r, BudgetDescription, b.Description)
	putString(r, BudgetCategory, b.Category)
	putString(r, BudgetUserID, b.UserID)
	putTime(r, FieldCreatedAt, b.CreatedAt)
	putTime(r, FieldUpdatedAt, b.UpdatedAt)
	return r
}

// BudgetFromRecord builds a Budget from a store document.
func BudgetFromRecord(r Record) Budget {
	b := Budget{ID: r.ID()}
	b.Title, _ = r.String(BudgetTitle)
	b.Description, _ = r.String(BudgetDescription)
	b.Amount, _ = r.Float(BudgetAmount)
	b.Category, _ = r.String(BudgetCategory)
	b.UserID, _ = r.String(BudgetUserID)
	b.Approved, _ = r.Bool(BudgetApproved)
	b.CreatedAt, _ = r.CreatedAt()
	b.UpdatedAt, _ = r.Time(FieldUpdatedAt)
	return b
}
