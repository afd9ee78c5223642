package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"biblioteca/pkg/healthcheck"
)

var errAborted = errors.New("encerrado devido a falha de API")

func printHealth(out io.Writer, res healthcheck.Result) {
	fmt.Fprintf(out, "HealthCheck: %s | Latência total: %dms\n", res.Message, res.TotalLatency.Milliseconds())
	for _, ep := range res.Endpoints {
		var status string
		if ep.OK {
			status = fmt.Sprintf("OK (%d)", ep.Status)
		} else {
			code := ""
			if ep.Status != 0 {
				code = strconv.Itoa(ep.Status)
			}
			status = strings.Join(strings.Fields("FAIL "+code+" "+ep.Error), " ")
		}
		fmt.Fprintf(out, " - %-22s => %-18s | %dms\n", ep.Path, status, ep.Latency.Milliseconds())
	}
}

// startupCheck reports the backend state before the menu opens. When the
// check fails the operator may carry on by answering "s"; without a terminal
// to ask, only force lets the session continue.
func startupCheck(ctx context.Context, checker *healthcheck.Checker, in *bufio.Scanner, out io.Writer, baseURL string, interactive, force bool) error {
	res := checker.Check(ctx)
	printHealth(out, res)
	if res.OK {
		return nil
	}

	fmt.Fprintln(out, "Alguns endpoints falharam ou todos indisponíveis.")
	fmt.Fprintf(out, "Dicas: 1) Inicie: jsonstore serve  2) Verifique API_BASE_URL (%s)  3) Conexão local liberada\n", baseURL)
	if force {
		return nil
	}
	if !interactive {
		return errAborted
	}

	fmt.Fprint(out, "Continuar mesmo assim? (s/N): ")
	if !in.Scan() || strings.ToLower(strings.TrimSpace(in.Text())) != "s" {
		return errAborted
	}
	return nil
}
