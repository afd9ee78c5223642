package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"biblioteca/pkg/models"
)

const (
	BooksCollection   = "livros"
	MembersCollection = "membros"
	LoansCollection   = "emprestimos"
)

type MemberRepository interface {
	Add(ctx context.Context, m *models.Member) (*models.Member, error)
	Update(ctx context.Context, m *models.Member) (*models.Member, error)
	Remove(ctx context.Context, id int) (*models.Member, error)
	ListAll(ctx context.Context) ([]*models.Member, error)
	Get(ctx context.Context, id int) (*models.Member, error)
	FindByName(ctx context.Context, name string) ([]*models.Member, error)
}

type BookRepository interface {
	Add(ctx context.Context, b *models.Book) (*models.Book, error)
	Update(ctx context.Context, b *models.Book) (*models.Book, error)
	Remove(ctx context.Context, id int) (*models.Book, error)
	ListAll(ctx context.Context) ([]*models.Book, error)
	Get(ctx context.Context, id int) (*models.Book, error)
}

type LoanRepository interface {
	Add(ctx context.Context, l *models.Loan) (*models.Loan, error)
	Update(ctx context.Context, l *models.Loan) (*models.Loan, error)
	Remove(ctx context.Context, id int) (*models.Loan, error)
	ListAll(ctx context.Context) ([]*models.Loan, error)
	ListActive(ctx context.Context) ([]*models.Loan, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Loan, error)
	Get(ctx context.Context, id int) (*models.Loan, error)
}

var (
	_ MemberRepository = (*Members)(nil)
	_ BookRepository   = (*Books)(nil)
	_ LoanRepository   = (*Loans)(nil)
)

// entityService holds what the three repositories share: a collection and a
// normalizer from backend records to entities.
type entityService[T any] struct {
	col       *Collection
	normalize func(map[string]any) (*T, error)
}

func (s entityService[T]) one(r Record, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	e, err := s.normalize(r)
	if err != nil {
		return nil, fmt.Errorf("invalid %s record: %w", s.col.entity, err)
	}
	return e, nil
}

// many drops records that fail normalization so one bad entry does not hide
// the rest of the collection.
func (s entityService[T]) many(records []Record, err error) ([]*T, error) {
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(records))
	for _, r := range records {
		e, err := s.normalize(r)
		if err != nil {
			s.col.client.logger.Warn("skipping invalid record",
				"collection", s.col.name, "id", r[s.col.idField], "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s entityService[T]) add(ctx context.Context, dto any) (*T, error) {
	e, err := s.one(s.col.Create(ctx, dto))
	if err != nil {
		return nil, fmt.Errorf("adicionar %s: %w", s.col.entity, err)
	}
	return e, nil
}

func (s entityService[T]) update(ctx context.Context, id int, dto any) (*T, error) {
	e, err := s.one(s.col.Update(ctx, id, dto))
	if err != nil {
		return nil, fmt.Errorf("atualizar %s %d: %w", s.col.entity, id, err)
	}
	return e, nil
}

// remove returns a nil entity when the record was deleted but its stored
// form no longer normalizes.
func (s entityService[T]) remove(ctx context.Context, id int) (*T, error) {
	r, err := s.col.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("remover %s %d: %w", s.col.entity, id, err)
	}
	e, err := s.normalize(r)
	if err != nil {
		s.col.client.logger.Warn("removed record is invalid",
			"collection", s.col.name, "id", id, "error", err)
		return nil, nil
	}
	return e, nil
}

func (s entityService[T]) get(ctx context.Context, id int) (*T, error) {
	e, err := s.one(s.col.GetByID(ctx, id))
	if err != nil {
		return nil, fmt.Errorf("buscar %s %d: %w", s.col.entity, id, err)
	}
	return e, nil
}

func (s entityService[T]) list(ctx context.Context, query url.Values) ([]*T, error) {
	es, err := s.many(s.col.List(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("listar %s: %w", s.col.name, err)
	}
	return es, nil
}

type Members struct {
	svc entityService[models.Member]
}

func NewMembers(c *Client) *Members {
	return &Members{svc: entityService[models.Member]{
		col:       c.Collection(MembersCollection, "idPessoa", "Membro"),
		normalize: models.MemberFromDTO,
	}}
}

func (r *Members) Add(ctx context.Context, m *models.Member) (*models.Member, error) {
	return r.svc.add(ctx, m.DTO())
}

func (r *Members) Update(ctx context.Context, m *models.Member) (*models.Member, error) {
	return r.svc.update(ctx, m.ID(), m.DTO())
}

func (r *Members) Remove(ctx context.Context, id int) (*models.Member, error) {
	return r.svc.remove(ctx, id)
}

func (r *Members) ListAll(ctx context.Context) ([]*models.Member, error) {
	return r.svc.list(ctx, nil)
}

func (r *Members) Get(ctx context.Context, id int) (*models.Member, error) {
	return r.svc.get(ctx, id)
}

// FindByName matches the name exactly, as the backend filter does.
func (r *Members) FindByName(ctx context.Context, name string) ([]*models.Member, error) {
	found, err := r.svc.list(ctx, url.Values{"nome": {name}})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, &NotFoundError{Collection: MembersCollection, Entity: "Membro", Name: name}
	}
	return found, nil
}

type Books struct {
	svc entityService[models.Book]
}

func NewBooks(c *Client) *Books {
	return &Books{svc: entityService[models.Book]{
		col:       c.Collection(BooksCollection, "idLivro", "Livro"),
		normalize: models.BookFromDTO,
	}}
}

func (r *Books) Add(ctx context.Context, b *models.Book) (*models.Book, error) {
	return r.svc.add(ctx, b.DTO())
}

func (r *Books) Update(ctx context.Context, b *models.Book) (*models.Book, error) {
	return r.svc.update(ctx, b.ID(), b.DTO())
}

func (r *Books) Remove(ctx context.Context, id int) (*models.Book, error) {
	return r.svc.remove(ctx, id)
}

func (r *Books) ListAll(ctx context.Context) ([]*models.Book, error) {
	return r.svc.list(ctx, nil)
}

func (r *Books) Get(ctx context.Context, id int) (*models.Book, error) {
	return r.svc.get(ctx, id)
}

type Loans struct {
	svc entityService[models.Loan]
}

func NewLoans(c *Client) *Loans {
	return &Loans{svc: entityService[models.Loan]{
		col:       c.Collection(LoansCollection, "idEmprestimo", "Empréstimo"),
		normalize: models.LoanFromDTO,
	}}
}

func (r *Loans) Add(ctx context.Context, l *models.Loan) (*models.Loan, error) {
	return r.svc.add(ctx, l.DTO())
}

func (r *Loans) Update(ctx context.Context, l *models.Loan) (*models.Loan, error) {
	return r.svc.update(ctx, l.ID(), l.DTO())
}

func (r *Loans) Remove(ctx context.Context, id int) (*models.Loan, error) {
	return r.svc.remove(ctx, id)
}

func (r *Loans) ListAll(ctx context.Context) ([]*models.Loan, error) {
	return r.svc.list(ctx, nil)
}

func (r *Loans) ListActive(ctx context.Context) ([]*models.Loan, error) {
	return r.ListByStatus(ctx, models.StatusActive)
}

func (r *Loans) ListByStatus(ctx context.Context, status string) ([]*models.Loan, error) {
	return r.svc.list(ctx, url.Values{"status": {status}})
}

func (r *Loans) Get(ctx context.Context, id int) (*models.Loan, error) {
	return r.svc.get(ctx, id)
}
