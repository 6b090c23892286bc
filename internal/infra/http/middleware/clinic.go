package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	ClinicHeader   = "X-Clinic-ID"
	OperatorHeader = "X-Operator-ID"
)

type ctxKey int

const (
	clinicKey ctxKey = iota
	operatorKey
)

// Clinic exige o X-Clinic-ID e coloca a clínica (e o operador, se vier) no contexto.
func Clinic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clinicID := strings.TrimSpace(r.Header.Get(ClinicHeader))
		if clinicID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{
				"code":    "MISSING_CLINIC",
				"message": "header X-Clinic-ID is required",
			})
			return
		}

		ctx := WithClinic(r.Context(), clinicID)
		if op := strings.TrimSpace(r.Header.Get(OperatorHeader)); op != "" {
			ctx = context.WithValue(ctx, operatorKey, op)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithClinic(ctx context.Context, clinicID string) context.Context {
	return context.WithValue(ctx, clinicKey, clinicID)
}

func ClinicFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clinicKey).(string)
	return id, ok && id != ""
}

// OperatorFromContext cai para "default" quando o header não veio.
func OperatorFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(operatorKey).(string); ok && op != "" {
		return op
	}
	return "default"
}
