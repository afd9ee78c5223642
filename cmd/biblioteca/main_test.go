package main

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"biblioteca/pkg/healthcheck"
	"biblioteca/pkg/jsonstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackend(t *testing.T) *jsonstore.Store {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := jsonstore.NewLibrary()
	srv := httptest.NewServer(store.Router())
	t.Cleanup(srv.Close)
	setEnv(t, srv.URL)
	return store
}

func setEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("API_BASE_URL", baseURL)
	t.Setenv("API_MAX_ATTEMPTS", "2")
	t.Setenv("API_RETRY_DELAY", "1ms")
	t.Setenv("API_ATTEMPT_TIMEOUT", "1s")
	t.Setenv("HEALTH_TIMEOUT", "500ms")
	t.Setenv("HEALTH_REQUIRE_ALL", "false")
	t.Setenv("BREAKER_MAX_FAILURES", "0")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(input), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestMenuLoanFlow(t *testing.T) {
	store := setupBackend(t)

	out, err := run(t, script(
		"1", "1", "Ana Souza", "2024001", "Rua A, 10", "11 99999-0000", "4", "0",
		"2", "1", "Dom Casmurro", "Machado de Assis", "9788535914849", "01/01/1899", "4", "0",
		"3", "1", "1", "1", "15/11/2025", "5", "6", "1", "20/11/2025", "5", "4", "0",
		"0",
	))
	require.NoError(t, err)

	assert.Contains(t, out, "HealthCheck: all endpoints ok")
	assert.Contains(t, out, "Membro adicionado com ID 1")
	assert.Contains(t, out, "[1] Ana Souza | matrícula 2024001 | Rua A, 10 | 11 99999-0000")
	assert.Contains(t, out, "Livro adicionado com ID 1")
	assert.Contains(t, out, "[1] Dom Casmurro - Machado de Assis | ISBN 9788535914849 | 1899-01-01")
	assert.Contains(t, out, "Empréstimo registrado com ID 1")
	assert.Contains(t, out, "[1] livro 1 | membro 1 | 2025-11-15 -> - | ativo")
	assert.Contains(t, out, "Devolução do empréstimo 1 registrada")
	assert.Contains(t, out, "Nenhum registro encontrado.")
	assert.Contains(t, out, "[1] livro 1 | membro 1 | 2025-11-15 -> 2025-11-20 | devolvido")
	assert.True(t, strings.HasSuffix(out, "Saindo...\n"))

	loans := store.Records("emprestimos")
	require.Len(t, loans, 1)
	assert.Equal(t, "devolvido", loans[0]["status"])
	assert.Equal(t, "2025-11-20", loans[0]["dataDevolucao"])
}

func TestMenuUpdateAndRemove(t *testing.T) {
	store := setupBackend(t)
	require.NoError(t, store.Load(strings.NewReader(`{
		"membros": [{"idPessoa": 1, "nome": "Ana Souza", "numeroMatricula": "1", "endereco": "Rua A", "telefone": "123"}],
		"livros": [{"idLivro": 1, "titulo": "Iracema", "autor": "José de Alencar", "ISBN": "9788535914849", "anoPublicacao": "1865-05-01"}]
	}`)))

	out, err := run(t, script(
		"1", "2", "1", "Ana Carolina Silva", "", "Avenida Paulista, 1000", "", "5", "Ana Carolina Silva", "3", "1", "4", "0",
		"2", "2", "1", "", "", "", "", "3", "1", "0",
		"0",
	))
	require.NoError(t, err)

	assert.Contains(t, out, "Membro 1 atualizado")
	assert.Contains(t, out, "[1] Ana Carolina Silva | matrícula 1 | Avenida Paulista, 1000 | 123")
	assert.Contains(t, out, "Membro removido: Ana Carolina Silva")
	assert.Contains(t, out, "Livro 1 atualizado")
	assert.Contains(t, out, "Livro removido: Iracema")
	assert.Empty(t, store.Records("membros"))
	assert.Empty(t, store.Records("livros"))
}

func TestMenuReportsErrors(t *testing.T) {
	setupBackend(t)

	out, err := run(t, script(
		"9",
		"x",
		"1", "1", "Ab", "1", "Rua", "123",
		"2", "9",
		"5", "Ninguém",
		"0",
		"3", "1", "7",
		"0", "0",
	))
	require.NoError(t, err)

	assert.Contains(t, out, "Opção inválida!")
	assert.Contains(t, out, "Erro: adicionar membro: Nome deve ter entre 3 e 40 caracteres")
	assert.Contains(t, out, "Erro: buscar Membro 9: Membro com ID 9 não encontrado")
	assert.Contains(t, out, "Erro: Membro com nome Ninguém não encontrado")
	assert.Contains(t, out, "Erro: buscar Livro 7: Livro com ID 7 não encontrado")
}

func TestMenuNamesFailedOperation(t *testing.T) {
	store := setupBackend(t)
	require.NoError(t, store.Load(strings.NewReader(`{
		"membros": [
			{"idPessoa": 1, "nome": "Ana Souza", "numeroMatricula": "1", "endereco": "Rua A", "telefone": "123"},
			{"idPessoa": 7, "nome": "Al", "numeroMatricula": "7", "endereco": "Rua B", "telefone": "456"}
		],
		"emprestimos": [{"idEmprestimo": 1, "idLivro": 1, "idPessoa": 1, "dataEmprestimo": "2025-11-15", "dataDevolucao": null, "status": "ativo"}]
	}`)))

	out, err := run(t, script(
		"1", "2", "1", "Al", "3", "7", "0",
		"3", "6", "1", "10/11/2025", "0",
		"0",
	))
	require.NoError(t, err)

	assert.Contains(t, out, "Erro: atualizar membro 1: Nome deve ter entre 3 e 40 caracteres")
	assert.Contains(t, out, "Membro 7 removido")
	assert.Contains(t, out, "Erro: registrar devolução 1: A devolução não pode ser anterior ao empréstimo")

	members := store.Records("membros")
	require.Len(t, members, 1)
	assert.Equal(t, "Ana Souza", members[0]["nome"])
	assert.Equal(t, "ativo", store.Records("emprestimos")[0]["status"])
}

func TestMenuStopsAtEndOfInput(t *testing.T) {
	setupBackend(t)

	out, err := run(t, script("1", "1", "Ana Souza"))
	require.NoError(t, err)
	assert.NotContains(t, out, "Erro")
}

func TestHealthCommand(t *testing.T) {
	setupBackend(t)

	out, err := run(t, "", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "HealthCheck: all endpoints ok")
	assert.Contains(t, out, "/livros?_limit=1")
	assert.Contains(t, out, "OK (200)")
}

func TestBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	setEnv(t, url)

	out, err := run(t, "", "health")
	assert.ErrorIs(t, err, errAborted)
	assert.Contains(t, out, "unavailable - none responded")

	out, err = run(t, script("0"))
	assert.ErrorIs(t, err, errAborted)
	assert.NotContains(t, out, "=== Biblioteca ===")

	out, err = run(t, script("0"), "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Alguns endpoints falharam")
	assert.NotContains(t, out, "Continuar mesmo assim")
	assert.Contains(t, out, "Saindo...")

	out, err = run(t, script("0"), "--skip-health")
	require.NoError(t, err)
	assert.NotContains(t, out, "HealthCheck")
}

type downProber struct{}

func (downProber) Probe(ctx context.Context, path string, timeout time.Duration) (int, error) {
	return http.StatusServiceUnavailable, nil
}

func TestStartupCheckAsksToContinue(t *testing.T) {
	checker := healthcheck.New(downProber{}, healthcheck.Options{})

	tests := []struct {
		answer  string
		wantErr bool
	}{
		{"s", false},
		{"S", false},
		{"n", true},
		{"", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		in := bufio.NewScanner(strings.NewReader(tt.answer + "\n"))

		err := startupCheck(context.Background(), checker, in, &out, "http://localhost:3000", true, false)

		assert.Contains(t, out.String(), "Continuar mesmo assim? (s/N): ")
		assert.Contains(t, out.String(), "FAIL 503 erro HTTP: 503")
		if tt.wantErr {
			assert.ErrorIs(t, err, errAborted)
		} else {
			assert.NoError(t, err)
		}
	}
}
