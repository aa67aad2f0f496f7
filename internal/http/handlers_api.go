package http

import (
	"errors"
	"net/http"

	"goals/internal/core"
	"goals/internal/log"
)

func (s *Server) apiListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.List(r.Context())
	if err != nil {
		s.logStoreError(r, log.OpList, "", err)
		writeJSONError(w, http.StatusInternalServerError, "could not list goals")
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) apiGetGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	g, err := s.goals.GetByID(r.Context(), id)
	if err != nil {
		s.writeAPIStoreError(w, r, log.OpRead, id, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) apiCreateGoal(w http.ResponseWriter, r *http.Request) {
	var fields core.GoalFields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateFields(fields); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	g, err := s.goals.Create(r.Context(), fields)
	if err != nil {
		s.writeAPIStoreError(w, r, log.OpCreate, "", err)
		return
	}
	s.metrics.goalsCreated.Add(1)
	w.Header().Set("Location", "/api/goals/"+g.ID)
	writeJSON(w, http.StatusCreated, g)
}

// apiPatchGoal applies only the keys present in the body; null counts as
// absent. The id comes from the path.
func (s *Server) apiPatchGoal(w http.ResponseWriter, r *http.Request) {
	var patch core.GoalPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("id")
	if patch.ID != "" && patch.ID != id {
		writeJSONError(w, http.StatusBadRequest, "id in body does not match path")
		return
	}
	patch.ID = id
	if err := validatePatch(patch); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	g, err := s.goals.Update(r.Context(), patch)
	if err != nil {
		s.writeAPIStoreError(w, r, log.OpUpdate, id, err)
		return
	}
	s.metrics.goalsUpdated.Add(1)
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) writeAPIStoreError(w http.ResponseWriter, r *http.Request, op, id string, err error) {
	if errors.Is(err, core.ErrGoalNotFound) {
		writeJSONError(w, http.StatusNotFound, "goal not found")
		return
	}
	s.logStoreError(r, op, id, err)
	writeJSONError(w, http.StatusInternalServerError, "could not "+op+" goal")
}
