package models

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// wire pushes a DTO through JSON the way the backend sees it.
func wire(t *testing.T, dto any) map[string]any {
	t.Helper()
	data, err := jsoniter.Marshal(dto)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, jsoniter.Unmarshal(data, &raw))
	return raw
}

func assertValidation(t *testing.T, err error, message string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, message, verr.Message)
}

func TestMemberValidation(t *testing.T) {
	m, err := NewMember(1, "João Silva Santos", "2023001", "Rua das Flores, 123", "(11) 98765-4321")
	require.NoError(t, err)

	tests := []struct {
		name    string
		set     func(string) error
		value   string
		message string
	}{
		{"empty name", m.SetName, "", "Você deve colocar o nome completo"},
		{"blank name", m.SetName, "   ", "Você deve colocar o nome completo"},
		{"short name", m.SetName, "Ab", "Nome deve ter entre 3 e 40 caracteres"},
		{"long name", m.SetName, strings.Repeat("a", 41), "Nome deve ter entre 3 e 40 caracteres"},
		{"empty registration", m.SetRegistrationNumber, "", "Você deve colocar o número de matrícula"},
		{"empty address", m.SetAddress, "", "Você deve colocar o endereço"},
		{"empty phone", m.SetPhone, " ", "Você deve colocar o telefone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertValidation(t, tt.set(tt.value), tt.message)
		})
	}

	assert.Equal(t, "João Silva Santos", m.Name(), "failed assignments keep the previous value")
	assert.Equal(t, "2023001", m.RegistrationNumber())
	assert.Equal(t, "Rua das Flores, 123", m.Address())
	assert.Equal(t, "(11) 98765-4321", m.Phone())
}

func TestMemberNameBoundary(t *testing.T) {
	m, err := NewMember(0, "Maria", "1", "Rua A", "123")
	require.NoError(t, err)

	assert.Error(t, m.SetName("Ab"))
	assert.NoError(t, m.SetName("Ana"))
	assert.Equal(t, "Ana", m.Name())

	forty := "Joãozinho da Silva Pereira Santos Araújo"
	require.Equal(t, 40, utf8.RuneCountInString(forty))
	assert.NoError(t, m.SetName(forty))
}

func TestNewMemberRejectsInvalidInput(t *testing.T) {
	_, err := NewMember(1, "", "123", "Endereço", "Telefone")
	assertValidation(t, err, "Você deve colocar o nome completo")

	_, err = NewMember(1, "Nome", "123", "Endereço", "")
	assertValidation(t, err, "Você deve colocar o telefone")
}

func TestBookValidation(t *testing.T) {
	b, err := NewBook(1, "1984", "George Orwell", "9788535914849", date(1949, 6, 8))
	require.NoError(t, err)

	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"empty title", b.SetTitle(""), "O título não pode ser vazio."},
		{"long title", b.SetTitle(strings.Repeat("a", 41)), "O título não pode ter mais de 40 caracteres."},
		{"empty author", b.SetAuthor(""), "O autor não pode ser vazio."},
		{"short author", b.SetAuthor("ab"), "O autor deve ter entre 3 e 40 caracteres."},
		{"short ISBN", b.SetISBN("123456789"), "O ISBN deve ter exatamente 13 caracteres."},
		{"long ISBN", b.SetISBN("97885359148490"), "O ISBN deve ter exatamente 13 caracteres."},
		{"future publication", b.SetPublishedAt(time.Now().AddDate(1, 0, 0)), "O ano de publicação não pode ser no futuro."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertValidation(t, tt.err, tt.message)
		})
	}

	assert.Equal(t, "1984", b.Title())
	assert.Equal(t, "George Orwell", b.Author())
	assert.Equal(t, "9788535914849", b.ISBN())
	assert.Equal(t, date(1949, 6, 8), b.PublishedAt())
}

func TestBookISBNBoundary(t *testing.T) {
	b, err := NewBook(1, "Dom Casmurro", "Machado de Assis", "9788594318602", date(1899, 1, 1))
	require.NoError(t, err)

	assertValidation(t, b.SetISBN("123456789"), "O ISBN deve ter exatamente 13 caracteres.")
	assert.NoError(t, b.SetISBN("9788535914849"))
	assert.Equal(t, "9788535914849", b.ISBN())

	assert.NoError(t, b.SetISBN("ABCDEFGHIJKLÇ"), "code points, not bytes")
}

func TestBookAcceptsValidValues(t *testing.T) {
	b, err := NewBook(1, "Dom Casmurro", "Machado de Assis", "9788594318602", date(1899, 1, 1))
	require.NoError(t, err)

	require.NoError(t, b.SetTitle("O Cortiço"))
	require.NoError(t, b.SetAuthor("Aluísio Azevedo"))
	require.NoError(t, b.SetPublishedAt(date(2020, 1, 1)))

	assert.Equal(t, "O Cortiço", b.Title())
	assert.Equal(t, "Aluísio Azevedo", b.Author())
	assert.Equal(t, date(2020, 1, 1), b.PublishedAt())
}

func TestBookPublishedTodayAcrossZones(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	restore := now
	now = func() time.Time { return time.Date(2025, 11, 20, 1, 0, 0, 0, zone) }
	t.Cleanup(func() { now = restore })

	b, err := NewBook(1, "Dom Casmurro", "Machado de Assis", "9788594318602", date(1899, 1, 1))
	require.NoError(t, err)

	require.NoError(t, b.SetPublishedAt(date(2025, 11, 20)))
	assert.Equal(t, date(2025, 11, 20), b.PublishedAt())
	assertValidation(t, b.SetPublishedAt(date(2025, 11, 21)), "O ano de publicação não pode ser no futuro.")
}

func TestFieldRuleMessages(t *testing.T) {
	rule := textRule("nome", "notblank,min=3,max=40", "vazio", "tamanho")

	tests := []struct {
		in      string
		message string
	}{
		{"", "vazio"},
		{" \t ", "vazio"},
		{"Al", "tamanho"},
		{strings.Repeat("é", 41), "tamanho"},
	}
	for _, tt := range tests {
		assertValidation(t, rule.check(tt.in), tt.message)
	}
	assert.NoError(t, rule.check("Ana"))
	assert.NoError(t, rule.check(strings.Repeat("é", 40)))

	unmapped := fieldRule{field: "email", tags: "email"}
	err := unmapped.check("x")
	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.Contains(t, err.Error(), "email: ")
}

func TestValidationIsIdempotent(t *testing.T) {
	m, err := NewMember(3, "Ana Carolina", "2023003", "Rua das Palmeiras, 789", "(11) 99999-9999")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		require.NoError(t, m.SetName(m.Name()))
		require.NoError(t, m.SetRegistrationNumber(m.RegistrationNumber()))
		require.NoError(t, m.SetAddress(m.Address()))
		require.NoError(t, m.SetPhone(m.Phone()))
	}
	assert.Equal(t, "Ana Carolina", m.Name())

	b, err := NewBook(2, "O Alquimista", "Paulo Coelho", "9788576657620", date(1988, 1, 1))
	require.NoError(t, err)
	require.NoError(t, b.SetTitle(b.Title()))
	require.NoError(t, b.SetAuthor(b.Author()))
	require.NoError(t, b.SetISBN(b.ISBN()))
	require.NoError(t, b.SetPublishedAt(b.PublishedAt()))
	assert.Equal(t, "9788576657620", b.ISBN())

	l, err := NewLoan(1, 2, 3, date(2025, 11, 1), StatusActive, nil)
	require.NoError(t, err)
	require.NoError(t, l.SetLoanDate(l.LoanDate()))
	require.NoError(t, l.SetReturnDate(l.ReturnDate()))
	require.NoError(t, l.SetStatus(l.Status()))
	assert.Nil(t, l.ReturnDate())
}

func TestLoanDefaults(t *testing.T) {
	l, err := NewLoan(1, 2, 3, date(2025, 11, 1), "", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, l.ID())
	assert.Equal(t, 2, l.BookID())
	assert.Equal(t, 3, l.MemberID())
	assert.Equal(t, StatusActive, l.Status())
	assert.True(t, l.IsActive())
	assert.Nil(t, l.ReturnDate())
}

func TestLoanReturnDateInvariant(t *testing.T) {
	loanDate := date(2025, 11, 20)

	tests := []struct {
		name       string
		returnDate time.Time
		wantErr    bool
	}{
		{"day before", date(2025, 11, 19), true},
		{"month before", date(2025, 10, 15), true},
		{"same day", loanDate, false},
		{"same day later hour", loanDate.Add(15 * time.Hour), false},
		{"after", date(2025, 11, 25), false},
	}
	for _, tt := range tests {
		t.Run("construct "+tt.name, func(t *testing.T) {
			rd := tt.returnDate
			_, err := NewLoan(1, 1, 1, loanDate, StatusActive, &rd)
			if tt.wantErr {
				assertValidation(t, err, "A devolução não pode ser anterior ao empréstimo")
			} else {
				assert.NoError(t, err)
			}
		})
		t.Run("assign "+tt.name, func(t *testing.T) {
			l, err := NewLoan(1, 1, 1, loanDate, StatusActive, nil)
			require.NoError(t, err)
			rd := tt.returnDate
			err = l.SetReturnDate(&rd)
			if tt.wantErr {
				assertValidation(t, err, "A devolução não pode ser anterior ao empréstimo")
				assert.Nil(t, l.ReturnDate())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.returnDate, *l.ReturnDate())
			}
		})
	}
}

func TestLoanDateCannotPassReturnDate(t *testing.T) {
	rd := date(2025, 11, 25)
	l, err := NewLoan(1, 1, 1, date(2025, 11, 20), StatusReturned, &rd)
	require.NoError(t, err)

	assertValidation(t, l.SetLoanDate(date(2025, 11, 26)), "A devolução não pode ser anterior ao empréstimo")
	assert.Equal(t, date(2025, 11, 20), l.LoanDate())

	require.NoError(t, l.SetLoanDate(date(2025, 11, 25)))
	require.NoError(t, l.SetReturnDate(nil))
	assert.Nil(t, l.ReturnDate())
}

func TestLoanReturnDateIsCopied(t *testing.T) {
	rd := date(2025, 11, 25)
	l, err := NewLoan(1, 1, 1, date(2025, 11, 20), StatusReturned, &rd)
	require.NoError(t, err)

	rd = date(2000, 1, 1)
	assert.Equal(t, date(2025, 11, 25), *l.ReturnDate())

	got := l.ReturnDate()
	*got = date(1990, 1, 1)
	assert.Equal(t, date(2025, 11, 25), *l.ReturnDate())
}

func TestLoanStatusIsNotCoupledToReturnDate(t *testing.T) {
	l, err := NewLoan(1, 1, 1, date(2025, 11, 20), StatusActive, nil)
	require.NoError(t, err)

	require.NoError(t, l.SetStatus(StatusReturned))
	assert.Nil(t, l.ReturnDate())
	assert.False(t, l.IsActive())

	require.NoError(t, l.SetStatus("atrasado"))
	assert.Equal(t, "atrasado", l.Status())
	assertValidation(t, l.SetStatus(" "), "O status não pode ser vazio.")
	assert.Equal(t, "atrasado", l.Status())
}

func TestLoanDTO(t *testing.T) {
	l, err := NewLoan(1, 2, 3, date(2025, 11, 20), StatusActive, nil)
	require.NoError(t, err)

	dto := l.DTO()
	assert.Equal(t, 1, dto.IDEmprestimo)
	assert.Equal(t, 2, dto.IDLivro)
	assert.Equal(t, 3, dto.IDPessoa)
	assert.Equal(t, "2025-11-20", dto.DataEmprestimo)
	assert.Nil(t, dto.DataDevolucao)
	assert.Equal(t, StatusActive, dto.Status)

	raw := wire(t, dto)
	assert.Contains(t, raw, "dataDevolucao")
	assert.Nil(t, raw["dataDevolucao"])

	rd := time.Date(2025, 11, 25, 18, 30, 0, 0, time.UTC)
	require.NoError(t, l.SetReturnDate(&rd))
	require.NotNil(t, l.DTO().DataDevolucao)
	assert.Equal(t, "2025-11-25", *l.DTO().DataDevolucao)
}
