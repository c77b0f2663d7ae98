package ledger

import "fmt"

type ReferenceRole string

const (
	RolePayer ReferenceRole = "payer"
	RoleSplit ReferenceRole = "split"
)

// ReferentialIntegrityError reports an expense that points at a participant
// the event does not contain.
type ReferentialIntegrityError struct {
	ExpenseID     string
	ParticipantID string
	Role          ReferenceRole
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("expense %q references unknown %s participant %q", e.ExpenseID, e.Role, e.ParticipantID)
}
