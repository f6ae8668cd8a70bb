package web

import (
	"net/http"

	"interviewcal/internal/model"
	"interviewcal/internal/wizard"
)

type openRequest struct {
	InterviewID string `json:"interview_id"`
}

type submitResponse struct {
	State     wizard.State     `json:"state"`
	Interview *model.Interview `json:"interview,omitempty"`
}

func (s *Server) handleWizardState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Wizard.Get())
}

// handleWizardStep serves POST /api/wizard/{step} where step is one of
// open, job, interview, interviewee, back or close.
func (s *Server) handleWizardStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.PathValue("step") {
	case "open":
		var req openRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
		}
		if err := s.Wizard.Open(ctx, req.InterviewID); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Wizard.Get())

	case "job":
		var in wizard.JobInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		st, err := s.Wizard.SubmitJob(ctx, in)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)

	case "interview":
		var in wizard.InterviewInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		st, err := s.Wizard.SubmitInterview(ctx, in)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)

	case "interviewee":
		var in wizard.IntervieweeInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		iv, err := s.Wizard.SubmitInterviewee(ctx, in)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, submitResponse{State: s.Wizard.Get(), Interview: &iv})

	case "back":
		st, err := s.Wizard.Back()
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)

	case "close":
		s.Wizard.Close()
		writeJSON(w, http.StatusOK, s.Wizard.Get())

	default:
		writeError(w, http.StatusNotFound, "unknown wizard step")
	}
}
