package http

import (
	"context"
	"errors"
	"net/http"

	"eixo/internal/core"
	"eixo/internal/finance"
	applog "eixo/internal/log"
	"eixo/internal/persona"
	"eixo/internal/services"
	"eixo/internal/session"
)

const (
	msgInvalidBody    = "Formato da requisição inválido"
	msgLoginRequired  = "Faça login para continuar"
	msgInternal       = "Erro interno, tente novamente"
	msgPremiumOnly    = "Recurso disponível no plano Premium"
	msgExportPostOnly = "Use POST para iniciar esta exportação"
)

// validationMessages maps input errors to the text shown to the user.
var validationMessages = []struct {
	err error
	msg string
}{
	{core.ErrEmptyName, "Por favor, preencha seu nome"},
	{core.ErrNameTooLong, "O nome deve ter no máximo 60 caracteres"},
	{core.ErrWeakPassword, "A senha deve ter no mínimo 6 caracteres"},
	{core.ErrInvalidEmail, "Informe um e-mail válido"},
	{core.ErrInvalidAmount, "Informe um valor válido"},
	{core.ErrEmptyDescription, "Informe uma descrição"},
	{core.ErrDescriptionTooLong, "A descrição deve ter no máximo 200 caracteres"},
	{core.ErrInvalidType, "O tipo deve ser receita ou despesa"},
	{core.ErrEmptyCategory, "Selecione uma categoria"},
	{core.ErrInvalidColor, "Cor inválida"},
	{core.ErrInvalidLabel, "Número de parcelas inválido"},
	{core.ErrInvalidDeadline, "Informe um prazo válido"},
	{core.ErrInvalidDate, "Data inválida"},
	{core.ErrInvalidDay, "Data inválida"},
	{core.ErrInvalidMonth, "Data inválida"},
	{finance.ErrInvalidWindow, "O período deve ser de 1, 7 ou 30 dias"},
	{persona.ErrInvalidLetter, "Respostas do quiz inválidas"},
	{persona.ErrTooManyAnswers, "Respostas do quiz inválidas"},
	{persona.ErrUnknownPersona, "Respostas do quiz inválidas"},
}

// paywallResponse is the 402 body, carrying the persona-specific pitch.
type paywallResponse struct {
	Error   string          `json:"error"`
	Paywall bool            `json:"paywall"`
	Feature string          `json:"feature"`
	Message string          `json:"message"`
	Profile persona.Profile `json:"profile"`
}

func isPaywall(err error) bool {
	return errors.Is(err, finance.ErrQuotaExceeded) || errors.Is(err, finance.ErrPremiumRequired)
}

// errorResponse maps a service error to its HTTP response.
func errorResponse(err error) *JSONResponseBuilder {
	for _, v := range validationMessages {
		if errors.Is(err, v.err) {
			return UnprocessableEntityError(v.msg)
		}
	}

	switch {
	case errors.Is(err, core.ErrEmailTaken):
		return ConflictError("Este e-mail já está cadastrado")
	case errors.Is(err, core.ErrInvalidCredentials):
		return UnauthorizedError("E-mail ou senha incorretos")
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("Registro não encontrado")
	case errors.Is(err, finance.ErrUnknownFormat):
		return BadRequestError("Formato de exportação desconhecido")
	case errors.Is(err, services.ErrFormatNotSupported):
		return ErrorResponse(http.StatusNotImplemented, "Formato de exportação ainda não disponível")
	case isPaywall(err):
		return ErrorResponse(http.StatusPaymentRequired, msgPremiumOnly)
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusGatewayTimeout, msgInternal)
	default:
		return InternalServerError(msgInternal)
	}
}

// writeError logs server-side failures and writes the mapped response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse(err)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeInternal,
			applog.FieldPath, r.URL.Path)
	}
	resp.Write(w)
}

// writeGated is writeError for operations behind the free-tier gate: quota and
// premium errors become a 402 pitched at the user's persona.
func (s *Server) writeGated(w http.ResponseWriter, r *http.Request, sess *session.Session, feature string, err error) {
	if !isPaywall(err) {
		s.writeError(w, r, err)
		return
	}
	s.metrics.paywallHits.Inc()
	profile := persona.ProfileOf(sess.Persona())
	NewJSONResponse().
		Status(http.StatusPaymentRequired).
		Body(paywallResponse{
			Error:   msgPremiumOnly,
			Paywall: true,
			Feature: feature,
			Message: profile.Paywall,
			Profile: profile,
		}).
		Write(w)
}
