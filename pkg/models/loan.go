package models

import "time"

// Loan ties a book to a member. Status and return date are independent:
// marking a loan returned does not set the return date.
type Loan struct {
	id         int
	bookID     int
	memberID   int
	loanDate   time.Time
	returnDate *time.Time
	status     string
}

// LoanDTO is the wire shape stored in the emprestimos collection.
// DataDevolucao is null while the book is out.
type LoanDTO struct {
	IDEmprestimo   int     `json:"idEmprestimo"`
	IDLivro        int     `json:"idLivro"`
	IDPessoa       int     `json:"idPessoa"`
	DataEmprestimo string  `json:"dataEmprestimo"`
	DataDevolucao  *string `json:"dataDevolucao"`
	Status         string  `json:"status"`
}

var loanRules = struct {
	ID, BookID, MemberID, LoanDate, ReturnDate, Status Rule
}{
	ID:         Keys("idEmprestimo"),
	BookID:     Keys("idLivro"),
	MemberID:   Keys("idPessoa"),
	LoanDate:   Keys("dataEmprestimo"),
	ReturnDate: Keys("dataDevolucao", "dataDevolução", "_dataDevolução"),
	Status:     Keys("status"),
}

const errReturnBeforeLoan = "A devolução não pode ser anterior ao empréstimo"

var loanStatus = textRule("status", "notblank", "O status não pode ser vazio.", "")

// NewLoan builds a loan; an empty status defaults to StatusActive and a nil
// returnDate means the book has not come back.
func NewLoan(id, bookID, memberID int, loanDate time.Time, status string, returnDate *time.Time) (*Loan, error) {
	if status == "" {
		status = StatusActive
	}
	l := &Loan{id: id, bookID: bookID, memberID: memberID, loanDate: loanDate}
	if err := l.SetStatus(status); err != nil {
		return nil, err
	}
	if err := l.SetReturnDate(returnDate); err != nil {
		return nil, err
	}
	return l, nil
}

// LoanFromDTO normalizes a backend record. A missing or unreadable loan date
// becomes now, an unreadable return date becomes absent. The return date
// must still not precede the loan date.
func LoanFromDTO(raw map[string]any) (*Loan, error) {
	var returnDate *time.Time
	if t, ok := loanRules.ReturnDate.OptionalDate(raw); ok {
		returnDate = &t
	}
	return NewLoan(
		loanRules.ID.Int(raw),
		loanRules.BookID.Int(raw),
		loanRules.MemberID.Int(raw),
		loanRules.LoanDate.Date(raw, now()),
		loanRules.Status.String(raw),
		returnDate,
	)
}

func (l *Loan) ID() int             { return l.id }
func (l *Loan) BookID() int         { return l.bookID }
func (l *Loan) MemberID() int       { return l.memberID }
func (l *Loan) LoanDate() time.Time { return l.loanDate }
func (l *Loan) Status() string      { return l.status }

// ReturnDate returns a copy so callers cannot move the date past the checks.
func (l *Loan) ReturnDate() *time.Time {
	if l.returnDate == nil {
		return nil
	}
	t := *l.returnDate
	return &t
}

func (l *Loan) IsActive() bool { return l.status == StatusActive }

func (l *Loan) SetID(id int)             { l.id = id }
func (l *Loan) SetBookID(bookID int)     { l.bookID = bookID }
func (l *Loan) SetMemberID(memberID int) { l.memberID = memberID }

func (l *Loan) SetLoanDate(t time.Time) error {
	if l.returnDate != nil && beforeDay(*l.returnDate, t) {
		return invalid("dataEmprestimo", errReturnBeforeLoan)
	}
	l.loanDate = t
	return nil
}

// SetReturnDate clears the return date when t is nil.
func (l *Loan) SetReturnDate(t *time.Time) error {
	if t == nil {
		l.returnDate = nil
		return nil
	}
	if beforeDay(*t, l.loanDate) {
		return invalid("dataDevolucao", errReturnBeforeLoan)
	}
	d := *t
	l.returnDate = &d
	return nil
}

func (l *Loan) SetStatus(status string) error {
	if err := loanStatus.check(status); err != nil {
		return err
	}
	l.status = status
	return nil
}

func (l *Loan) DTO() LoanDTO {
	dto := LoanDTO{
		IDEmprestimo:   l.id,
		IDLivro:        l.bookID,
		IDPessoa:       l.memberID,
		DataEmprestimo: FormatDate(l.loanDate),
		Status:         l.status,
	}
	if l.returnDate != nil {
		s := FormatDate(*l.returnDate)
		dto.DataDevolucao = &s
	}
	return dto
}
