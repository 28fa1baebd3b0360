package core

import (
	"errors"
	"sort"
	"strings"

	"supply-console/internal/api"
)

var catalog = map[string]map[string]string{
	"pt": {
		"supplier":         "Selecione um fornecedor.",
		"items":            "Adicione pelo menos um item à compra.",
		"validation":       "Verifique os dados informados.",
		"form":             "Corrija os campos: ",
		"index":            "Item inexistente.",
		"transition":       "Mudança de status não permitida.",
		"auth":             "Sua sessão expirou. Faça login novamente.",
		"network":          "Não foi possível conectar ao servidor. Tente novamente.",
		"server":           "O servidor retornou um erro. Tente novamente.",
		"not_found":        "Registro não encontrado.",
		"busy":             "Aguarde, a operação anterior ainda está em andamento.",
		"unknown":          "Ocorreu um erro inesperado.",
		"confirm":          "Confirmação necessária.",
		"status_pending":   "Pendente",
		"status_delivered": "Entregue",
		"status_canceled":  "Cancelada",
	},
	"en": {
		"supplier":         "Select a supplier.",
		"items":            "Add at least one item to the purchase.",
		"validation":       "Check the data you entered.",
		"form":             "Fix the fields: ",
		"index":            "No such item.",
		"transition":       "Status change not allowed.",
		"auth":             "Your session has expired. Please log in again.",
		"network":          "Could not reach the server. Try again.",
		"server":           "The server returned an error. Try again.",
		"not_found":        "Record not found.",
		"busy":             "Please wait, the previous operation is still running.",
		"unknown":          "An unexpected error occurred.",
		"confirm":          "Confirmation required.",
		"status_pending":   "Pending",
		"status_delivered": "Delivered",
		"status_canceled":  "Canceled",
	},
}

// T returns the message for key in lang, falling back to Portuguese and then
// to the key itself.
func T(lang, key string) string {
	if m, ok := catalog[strings.ToLower(lang)]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := catalog["pt"][key]; ok {
		return s
	}
	return key
}

// StatusLabel returns the localized name of a purchase status.
func StatusLabel(lang string, s Status) string {
	return T(lang, "status_"+strings.ToLower(string(s)))
}

// Message renders err as a user-facing message in lang. Server messages are
// appended when the API supplied one.
func Message(lang string, err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		fe *FormError
		ie *IndexError
		te *TransitionError
		ae *api.AuthError
		ne *api.NetworkError
		se *api.ServerError
		nf *api.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		if s, ok := catalog[strings.ToLower(lang)][ve.Field]; ok {
			return s
		}
		return T(lang, "validation") + " " + ve.Message
	case errors.As(err, &fe):
		keys := make([]string, 0, len(fe.Fields))
		for k := range fe.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return T(lang, "form") + strings.Join(keys, ", ")
	case errors.As(err, &ie):
		return T(lang, "index")
	case errors.As(err, &te):
		return T(lang, "transition")
	case errors.As(err, &ae):
		return T(lang, "auth")
	case errors.As(err, &nf):
		return T(lang, "not_found")
	case errors.As(err, &se):
		if se.Message != "" && se.Status < 500 {
			return T(lang, "server") + " (" + se.Message + ")"
		}
		return T(lang, "server")
	case errors.As(err, &ne):
		return T(lang, "network")
	case errors.Is(err, ErrSubmitInProgress):
		return T(lang, "busy")
	default:
		return T(lang, "unknown")
	}
}
