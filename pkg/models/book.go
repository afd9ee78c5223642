package models

import "time"

type Book struct {
	id          int
	title       string
	author      string
	isbn        string
	publishedAt time.Time
}

// BookDTO is the wire shape stored in the livros collection.
type BookDTO struct {
	IDLivro       int    `json:"idLivro"`
	Titulo        string `json:"titulo"`
	Autor         string `json:"autor"`
	ISBN          string `json:"ISBN"`
	AnoPublicacao string `json:"anoPublicacao"`
}

var bookRules = struct {
	ID, Title, Author, ISBN, PublishedAt Rule
}{
	ID:          Keys("idLivro"),
	Title:       Keys("titulo"),
	Author:      Keys("autor"),
	ISBN:        Keys("ISBN", "isbn", "_isbn"),
	PublishedAt: Keys("anoPublicacao"),
}

func NewBook(id int, title, author, isbn string, publishedAt time.Time) (*Book, error) {
	b := &Book{id: id}
	if err := b.setText(title, author, isbn); err != nil {
		return nil, err
	}
	if err := b.SetPublishedAt(publishedAt); err != nil {
		return nil, err
	}
	return b, nil
}

// BookFromDTO normalizes a backend record. An unreadable publication date
// becomes the current time and is not checked against the future-date rule.
func BookFromDTO(raw map[string]any) (*Book, error) {
	b := &Book{id: bookRules.ID.Int(raw)}
	err := b.setText(
		bookRules.Title.String(raw),
		bookRules.Author.String(raw),
		bookRules.ISBN.String(raw),
	)
	if err != nil {
		return nil, err
	}
	b.publishedAt = bookRules.PublishedAt.Date(raw, now())
	return b, nil
}

func (b *Book) setText(title, author, isbn string) error {
	if err := b.SetTitle(title); err != nil {
		return err
	}
	if err := b.SetAuthor(author); err != nil {
		return err
	}
	return b.SetISBN(isbn)
}

func (b *Book) ID() int                { return b.id }
func (b *Book) Title() string          { return b.title }
func (b *Book) Author() string         { return b.author }
func (b *Book) ISBN() string           { return b.isbn }
func (b *Book) PublishedAt() time.Time { return b.publishedAt }

func (b *Book) SetID(id int) { b.id = id }

var (
	bookTitle  = textRule("titulo", "notblank,max=40", "O título não pode ser vazio.", "O título não pode ter mais de 40 caracteres.")
	bookAuthor = textRule("autor", "notblank,min=3,max=40", "O autor não pode ser vazio.", "O autor deve ter entre 3 e 40 caracteres.")
	// Any 13 code points are accepted; digits are not checked.
	bookISBN = textRule("ISBN", "notblank,len=13", "O ISBN não pode ser vazio.", "O ISBN deve ter exatamente 13 caracteres.")
)

func (b *Book) SetTitle(title string) error {
	if err := bookTitle.check(title); err != nil {
		return err
	}
	b.title = title
	return nil
}

func (b *Book) SetAuthor(author string) error {
	if err := bookAuthor.check(author); err != nil {
		return err
	}
	b.author = author
	return nil
}

func (b *Book) SetISBN(isbn string) error {
	if err := bookISBN.check(isbn); err != nil {
		return err
	}
	b.isbn = isbn
	return nil
}

// SetPublishedAt compares calendar days: a date is in the future only when
// its day comes after today's local date.
func (b *Book) SetPublishedAt(t time.Time) error {
	if beforeDay(now(), t) {
		return invalid("anoPublicacao", "O ano de publicação não pode ser no futuro.")
	}
	b.publishedAt = t
	return nil
}

func (b *Book) DTO() BookDTO {
	return BookDTO{
		IDLivro:       b.id,
		Titulo:        b.title,
		Autor:         b.author,
		ISBN:          b.isbn,
		AnoPublicacao: FormatDate(b.publishedAt),
	}
}
