package workflow

import (
	"context"

	"github.com/frahmantamala/hr-approvals/internal/approval"
)

// PendingFilter selects open requests waiting at Step. A request matches when
// its subject is in SubjectIDs or, when ManagerApproverID is set, when that
// user was recorded as its manager approver.
type PendingFilter struct {
	CompanyID         string
	Kind              approval.RequestType
	Step              approval.Step
	SubjectIDs        []string
	ManagerApproverID string
	Page              Page
}

// Repository persists requests of every kind. Requests of other companies are
// reported as ErrRequestNotFound.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, companyID string, kind approval.RequestType, id string) (*Request, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]*Request, error)
	ListBySubject(ctx context.Context, companyID string, kind approval.RequestType, subjectID string, page Page) ([]*Request, error)
	CountByStatus(ctx context.Context, companyID string, kind approval.RequestType) (map[Status]int64, error)
	History(ctx context.Context, companyID string, kind approval.RequestType, requestID string) ([]*LogEntry, error)

	// Transact runs fn in one transaction; any error rolls everything back.
	Transact(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write side available inside a transaction.
type Tx interface {
	// CompareAndSwap stores req only if the stored row still has expectedStep
	// and expectedVersion. It fails with ErrConcurrentUpdate otherwise.
	CompareAndSwap(ctx context.Context, req *Request, expectedStep approval.Step, expectedVersion int) error
	AppendLog(ctx context.Context, entry *LogEntry) error

	// ApplyRaise adds amount to the subject's active salary baseline and flips
	// the request's applied flag. A request whose flag is already set is left
	// alone and nil is returned.
	ApplyRaise(ctx context.Context, req *Request, amount int64, changedBy string) (*SalaryChange, error)
}
