package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"palestra/internal/core"
	"palestra/internal/services"
)

const maxBodyBytes = 1 << 20

// procedure is one named RPC. Mutations are refused over GET.
type procedure struct {
	mutation bool
	call     func(ctx context.Context, input []byte) (any, error)
}

func query[In, Out any](fn func(context.Context, In) (Out, error)) procedure {
	return procedure{call: bind(fn)}
}

func mutation[In, Out any](fn func(context.Context, In) (Out, error)) procedure {
	return procedure{mutation: true, call: bind(fn)}
}

func list[Out any](fn func(context.Context) (Out, error)) procedure {
	return procedure{call: func(ctx context.Context, _ []byte) (any, error) {
		return fn(ctx)
	}}
}

func bind[In, Out any](fn func(context.Context, In) (Out, error)) func(context.Context, []byte) (any, error) {
	return func(ctx context.Context, input []byte) (any, error) {
		var in In
		if err := decodeInput(input, &in); err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}
}

// decodeInput treats an empty input as an empty object. Domain decoding
// errors (bad date, bad amount) keep their invalid-input classification.
func decodeInput(input []byte, dst any) error {
	input = bytes.TrimSpace(input)
	if len(input) == 0 || bytes.Equal(input, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(input, dst); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON input: %v", errBadRequest, err)
	}
	return nil
}

// newRegistry lists every procedure the API exposes.
func newRegistry(svc *services.GymService) map[string]procedure {
	return map[string]procedure{
		"healthcheck": list(func(ctx context.Context) (services.HealthStatus, error) {
			return svc.Healthcheck(ctx), nil
		}),

		"createMember":         mutation(svc.CreateMember),
		"getMember":            query(svc.GetMember),
		"getMembers":           list(svc.GetMembers),
		"updateMember":         mutation(svc.UpdateMember),
		"createMemberProgress": mutation(svc.CreateMemberProgress),
		"getMemberProgress":    query(svc.GetMemberProgress),

		"createTrainer": mutation(svc.CreateTrainer),
		"getTrainer":    query(svc.GetTrainer),
		"getTrainers":   list(svc.GetTrainers),
		"updateTrainer": mutation(svc.UpdateTrainer),

		"createMembershipType": mutation(svc.CreateMembershipType),
		"getMembershipType":    query(svc.GetMembershipType),
		"getMembershipTypes":   list(svc.GetMembershipTypes),
		"updateMembershipType": mutation(svc.UpdateMembershipType),

		"createMembership": mutation(svc.CreateMembership),
		"getMembership":    query(svc.GetMembership),
		"getMemberships":   list(svc.GetMemberships),

		"createClass": mutation(svc.CreateClass),
		"getClass":    query(svc.GetClass),
		"getClasses":  list(svc.GetClasses),
		"updateClass": mutation(svc.UpdateClass),

		"createClassAttendance": mutation(svc.CreateClassAttendance),
		"getClassAttendance":    query(svc.GetClassAttendance),
		"updateClassAttendance": mutation(svc.UpdateClassAttendance),

		"createPayment": mutation(svc.CreatePayment),
		"getPayment":    query(svc.GetPayment),
		"getPayments":   list(svc.GetPayments),

		"generateRevenueReport": query(svc.GenerateRevenueReport),
	}
}

// Procedures returns the registered procedure names, sorted.
func (s *Server) Procedures() []string {
	names := make([]string, 0, len(s.procedures))
	for name := range s.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "procedure")
	proc, ok := s.procedures[name]
	if !ok {
		writeError(w, r, http.StatusNotFound, CodeUnknownProcedure, fmt.Sprintf("unknown procedure %q", name))
		return
	}

	var input []byte
	switch r.Method {
	case http.MethodGet:
		if proc.mutation {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed,
				fmt.Sprintf("procedure %q is a mutation and requires POST", name))
			return
		}
		input = []byte(r.URL.Query().Get("input"))
	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, CodeBadRequest, "request body too large or unreadable")
			return
		}
		input = body
	}

	start := time.Now()
	result, err := proc.call(r.Context(), input)
	s.procLog.LogProcedure(r.Context(), name, time.Since(start).Milliseconds(), err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, result)
}
