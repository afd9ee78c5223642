package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"biblioteca/pkg/apiclient"
	"biblioteca/pkg/models"
)

type menu struct {
	in      *bufio.Scanner
	out     io.Writer
	members apiclient.MemberRepository
	books   apiclient.BookRepository
	loans   apiclient.LoanRepository
}

type option struct {
	label  string
	action func(ctx context.Context) error
}

func (m *menu) ask(prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *menu) askInt(prompt string) (int, error) {
	s, err := m.ask(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("número inválido: %q", s)
	}
	return n, nil
}

// askDefault keeps current when the answer is empty.
func (m *menu) askDefault(label, current string) (string, error) {
	s, err := m.ask(fmt.Sprintf("%s [%s]: ", label, current))
	if err != nil || s == "" {
		return current, err
	}
	return s, nil
}

// askDate reads a date in any accepted layout; an empty answer yields def.
func (m *menu) askDate(prompt string, def *time.Time) (time.Time, error) {
	s, err := m.ask(prompt)
	if err != nil {
		return time.Time{}, err
	}
	if s == "" && def != nil {
		return *def, nil
	}
	t, ok := models.ParseDate(s)
	if !ok {
		return time.Time{}, fmt.Errorf("data inválida: %q", s)
	}
	return t, nil
}

func (m *menu) Run(ctx context.Context) error {
	return m.loop(ctx, "Biblioteca", "Sair", []option{
		{"Membros", m.membersMenu},
		{"Livros", m.booksMenu},
		{"Empréstimos", m.loansMenu},
	})
}

// loop shows options numbered from 1 with 0 leaving the menu. Errors of an
// action are printed and the menu is shown again; end of input stops it.
func (m *menu) loop(ctx context.Context, title, exit string, options []option) error {
	for {
		fmt.Fprintf(m.out, "\n=== %s ===\n", title)
		for i, o := range options {
			fmt.Fprintf(m.out, "%d - %s\n", i+1, o.label)
		}
		fmt.Fprintf(m.out, "0 - %s\n", exit)

		choice, err := m.askInt("Escolha uma opção: ")
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			fmt.Fprintln(m.out, "Opção inválida!")
			continue
		case choice == 0:
			if exit == "Sair" {
				fmt.Fprintln(m.out, "Saindo...")
			}
			return nil
		case choice < 0 || choice > len(options):
			fmt.Fprintln(m.out, "Opção inválida!")
			continue
		}

		err = options[choice-1].action(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(m.out, "Erro: %v\n", err)
		}
	}
}

func (m *menu) printEmpty(n int) {
	if n == 0 {
		fmt.Fprintln(m.out, "Nenhum registro encontrado.")
	}
}

func (m *menu) membersMenu(ctx context.Context) error {
	return m.loop(ctx, "Membros", "Voltar", []option{
		{"Adicionar membro", m.addMember},
		{"Atualizar membro", m.updateMember},
		{"Remover membro", m.removeMember},
		{"Listar membros", m.listMembers},
		{"Buscar membro por nome", m.findMember},
	})
}

func (m *menu) addMember(ctx context.Context) error {
	var fields [4]string
	for i, label := range []string{"Nome: ", "Número de matrícula: ", "Endereço: ", "Telefone: "} {
		s, err := m.ask(label)
		if err != nil {
			return err
		}
		fields[i] = s
	}
	member, err := models.NewMember(0, fields[0], fields[1], fields[2], fields[3])
	if err != nil {
		return fmt.Errorf("adicionar membro: %w", err)
	}
	added, err := m.members.Add(ctx, member)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Membro adicionado com ID %d\n", added.ID())
	return nil
}

func (m *menu) updateMember(ctx context.Context) error {
	id, err := m.askInt("ID do membro: ")
	if err != nil {
		return err
	}
	member, err := m.members.Get(ctx, id)
	if err != nil {
		return err
	}

	steps := []struct {
		label   string
		current string
		set     func(string) error
	}{
		{"Nome", member.Name(), member.SetName},
		{"Número de matrícula", member.RegistrationNumber(), member.SetRegistrationNumber},
		{"Endereço", member.Address(), member.SetAddress},
		{"Telefone", member.Phone(), member.SetPhone},
	}
	for _, s := range steps {
		v, err := m.askDefault(s.label, s.current)
		if err != nil {
			return err
		}
		if err := s.set(v); err != nil {
			return fmt.Errorf("atualizar membro %d: %w", id, err)
		}
	}

	if _, err := m.members.Update(ctx, member); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Membro %d atualizado\n", id)
	return nil
}

func (m *menu) removeMember(ctx context.Context) error {
	id, err := m.askInt("ID do membro: ")
	if err != nil {
		return err
	}
	removed, err := m.members.Remove(ctx, id)
	if err != nil {
		return err
	}
	if removed == nil {
		fmt.Fprintf(m.out, "Membro %d removido\n", id)
		return nil
	}
	fmt.Fprintf(m.out, "Membro removido: %s\n", removed.Name())
	return nil
}

func (m *menu) listMembers(ctx context.Context) error {
	members, err := m.members.ListAll(ctx)
	if err != nil {
		return err
	}
	m.printMembers(members)
	return nil
}

func (m *menu) findMember(ctx context.Context) error {
	name, err := m.ask("Nome: ")
	if err != nil {
		return err
	}
	members, err := m.members.FindByName(ctx, name)
	if err != nil {
		return err
	}
	m.printMembers(members)
	return nil
}

func (m *menu) printMembers(members []*models.Member) {
	for _, mb := range members {
		fmt.Fprintf(m.out, "[%d] %s | matrícula %s | %s | %s\n",
			mb.ID(), mb.Name(), mb.RegistrationNumber(), mb.Address(), mb.Phone())
	}
	m.printEmpty(len(members))
}

func (m *menu) booksMenu(ctx context.Context) error {
	return m.loop(ctx, "Livros", "Voltar", []option{
		{"Adicionar livro", m.addBook},
		{"Atualizar livro", m.updateBook},
		{"Remover livro", m.removeBook},
		{"Listar livros", m.listBooks},
	})
}

func (m *menu) addBook(ctx context.Context) error {
	var fields [3]string
	for i, label := range []string{"Título: ", "Autor: ", "ISBN: "} {
		s, err := m.ask(label)
		if err != nil {
			return err
		}
		fields[i] = s
	}
	published, err := m.askDate("Data de publicação (AAAA-MM-DD ou DD/MM/AAAA): ", nil)
	if err != nil {
		return err
	}
	book, err := models.NewBook(0, fields[0], fields[1], fields[2], published)
	if err != nil {
		return fmt.Errorf("adicionar livro: %w", err)
	}
	added, err := m.books.Add(ctx, book)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Livro adicionado com ID %d\n", added.ID())
	return nil
}

func (m *menu) updateBook(ctx context.Context) error {
	id, err := m.askInt("ID do livro: ")
	if err != nil {
		return err
	}
	book, err := m.books.Get(ctx, id)
	if err != nil {
		return err
	}

	steps := []struct {
		label   string
		current string
		set     func(string) error
	}{
		{"Título", book.Title(), book.SetTitle},
		{"Autor", book.Author(), book.SetAuthor},
		{"ISBN", book.ISBN(), book.SetISBN},
	}
	for _, s := range steps {
		v, err := m.askDefault(s.label, s.current)
		if err != nil {
			return err
		}
		if err := s.set(v); err != nil {
			return fmt.Errorf("atualizar livro %d: %w", id, err)
		}
	}
	current := book.PublishedAt()
	published, err := m.askDate(fmt.Sprintf("Data de publicação [%s]: ", models.FormatDate(current)), &current)
	if err != nil {
		return err
	}
	if !published.Equal(current) {
		if err := book.SetPublishedAt(published); err != nil {
			return fmt.Errorf("atualizar livro %d: %w", id, err)
		}
	}

	if _, err := m.books.Update(ctx, book); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Livro %d atualizado\n", id)
	return nil
}

func (m *menu) removeBook(ctx context.Context) error {
	id, err := m.askInt("ID do livro: ")
	if err != nil {
		return err
	}
	removed, err := m.books.Remove(ctx, id)
	if err != nil {
		return err
	}
	if removed == nil {
		fmt.Fprintf(m.out, "Livro %d removido\n", id)
		return nil
	}
	fmt.Fprintf(m.out, "Livro removido: %s\n", removed.Title())
	return nil
}

func (m *menu) listBooks(ctx context.Context) error {
	books, err := m.books.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, b := range books {
		fmt.Fprintf(m.out, "[%d] %s - %s | ISBN %s | %s\n",
			b.ID(), b.Title(), b.Author(), b.ISBN(), models.FormatDate(b.PublishedAt()))
	}
	m.printEmpty(len(books))
	return nil
}

func (m *menu) loansMenu(ctx context.Context) error {
	return m.loop(ctx, "Empréstimos", "Voltar", []option{
		{"Registrar empréstimo", m.addLoan},
		{"Atualizar empréstimo", m.updateLoan},
		{"Remover empréstimo", m.removeLoan},
		{"Listar empréstimos", m.listLoans},
		{"Listar empréstimos ativos", m.listActiveLoans},
		{"Registrar devolução", m.returnLoan},
	})
}

func (m *menu) addLoan(ctx context.Context) error {
	bookID, err := m.askInt("ID do livro: ")
	if err != nil {
		return err
	}
	if _, err := m.books.Get(ctx, bookID); err != nil {
		return err
	}
	memberID, err := m.askInt("ID do membro: ")
	if err != nil {
		return err
	}
	if _, err := m.members.Get(ctx, memberID); err != nil {
		return err
	}
	today := time.Now()
	loanDate, err := m.askDate("Data do empréstimo (vazio para hoje): ", &today)
	if err != nil {
		return err
	}

	loan, err := models.NewLoan(0, bookID, memberID, loanDate, models.StatusActive, nil)
	if err != nil {
		return fmt.Errorf("registrar empréstimo: %w", err)
	}
	added, err := m.loans.Add(ctx, loan)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Empréstimo registrado com ID %d\n", added.ID())
	return nil
}

func (m *menu) updateLoan(ctx context.Context) error {
	id, err := m.askInt("ID do empréstimo: ")
	if err != nil {
		return err
	}
	loan, err := m.loans.Get(ctx, id)
	if err != nil {
		return err
	}

	current := loan.LoanDate()
	loanDate, err := m.askDate(fmt.Sprintf("Data do empréstimo [%s]: ", models.FormatDate(current)), &current)
	if err != nil {
		return err
	}
	if err := loan.SetLoanDate(loanDate); err != nil {
		return fmt.Errorf("atualizar empréstimo %d: %w", id, err)
	}
	status, err := m.askDefault("Status", loan.Status())
	if err != nil {
		return err
	}
	if err := loan.SetStatus(status); err != nil {
		return fmt.Errorf("atualizar empréstimo %d: %w", id, err)
	}

	if _, err := m.loans.Update(ctx, loan); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Empréstimo %d atualizado\n", id)
	return nil
}

func (m *menu) removeLoan(ctx context.Context) error {
	id, err := m.askInt("ID do empréstimo: ")
	if err != nil {
		return err
	}
	if _, err := m.loans.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Empréstimo %d removido\n", id)
	return nil
}

func (m *menu) listLoans(ctx context.Context) error {
	loans, err := m.loans.ListAll(ctx)
	if err != nil {
		return err
	}
	m.printLoans(loans)
	return nil
}

func (m *menu) listActiveLoans(ctx context.Context) error {
	loans, err := m.loans.ListActive(ctx)
	if err != nil {
		return err
	}
	m.printLoans(loans)
	return nil
}

// returnLoan marks the loan returned and records the return date together.
func (m *menu) returnLoan(ctx context.Context) error {
	id, err := m.askInt("ID do empréstimo: ")
	if err != nil {
		return err
	}
	loan, err := m.loans.Get(ctx, id)
	if err != nil {
		return err
	}
	if !loan.IsActive() {
		return fmt.Errorf("empréstimo %d não está ativo (status %s)", id, loan.Status())
	}
	today := time.Now()
	returned, err := m.askDate("Data da devolução (vazio para hoje): ", &today)
	if err != nil {
		return err
	}
	if err := loan.SetReturnDate(&returned); err != nil {
		return fmt.Errorf("registrar devolução %d: %w", id, err)
	}
	if err := loan.SetStatus(models.StatusReturned); err != nil {
		return fmt.Errorf("registrar devolução %d: %w", id, err)
	}

	if _, err := m.loans.Update(ctx, loan); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Devolução do empréstimo %d registrada\n", id)
	return nil
}

func (m *menu) printLoans(loans []*models.Loan) {
	for _, l := range loans {
		returned := "-"
		if rd := l.ReturnDate(); rd != nil {
			returned = models.FormatDate(*rd)
		}
		fmt.Fprintf(m.out, "[%d] livro %d | membro %d | %s -> %s | %s\n",
			l.ID(), l.BookID(), l.MemberID(), models.FormatDate(l.LoanDate()), returned, l.Status())
	}
	m.printEmpty(len(loans))
}
