package http

import (
	"errors"
	"net/http"
	"net/url"

	"goals/internal/core"
	"goals/internal/log"
	"goals/internal/ui"
)

type iconFieldView struct {
	Icon      string
	Open      bool
	ToggleURL string
	Error     string
	Catalog   []emojiCategoryView
}

type emojiCategoryView struct {
	Name    string
	Options []emojiOption
}

type emojiOption struct {
	Glyph    string
	URL      string
	Selected bool
}

type formView struct {
	Form      *ui.GoalForm
	Errors    map[string]string
	Action    string
	IconField iconFieldView
}

type modalView struct {
	Title string
	Form  formView
}

type indexView struct {
	Cards []ui.GoalCard
}

func iconFieldURL(icon string, open bool) string {
	q := url.Values{"icon": {icon}}
	if open {
		q.Set("open", "1")
	}
	return "/ui/icon-field?" + q.Encode()
}

func newIconFieldView(f *ui.GoalForm) iconFieldView {
	v := iconFieldView{
		Icon:      f.Icon(),
		Open:      f.PickerOpen(),
		ToggleURL: iconFieldURL(f.Icon(), !f.PickerOpen()),
	}
	if !v.Open {
		return v
	}
	for _, cat := range ui.EmojiCatalog {
		cv := emojiCategoryView{Name: cat.Name}
		for _, glyph := range cat.Emojis {
			cv.Options = append(cv.Options, emojiOption{
				Glyph:    glyph,
				URL:      iconFieldURL(glyph, false),
				Selected: glyph == v.Icon,
			})
		}
		v.Catalog = append(v.Catalog, cv)
	}
	return v
}

func newFormView(f *ui.GoalForm) formView {
	action := "/goals"
	if f.Editing() {
		action = "/goals/" + f.GoalID()
	}
	return formView{
		Form:      f,
		Errors:    f.Errors(),
		Action:    action,
		IconField: newIconFieldView(f),
	}
}

func (s *Server) newForm(r *http.Request, seed *core.Goal, opts ...ui.FormOption) *ui.GoalForm {
	opts = append([]ui.FormOption{
		ui.WithClock(s.clock),
		ui.WithFormLogger(log.FromContext(r.Context())),
	}, opts...)
	return ui.NewGoalForm(s.goals, seed, opts...)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cards, err := ui.CardsFrom(r.Context(), s.goals)
	if err != nil {
		s.logStoreError(r, log.OpList, "", err)
		InternalServerError("Could not load goals").Write(w)
		return
	}
	s.render(w, r, nil, "index.html", indexView{Cards: cards})
}

func (s *Server) handleGoalList(w http.ResponseWriter, r *http.Request) {
	cards, err := ui.CardsFrom(r.Context(), s.goals)
	if err != nil {
		s.logStoreError(r, log.OpList, "", err)
		InternalServerError("Could not load goals").Write(w)
		return
	}
	s.render(w, r, nil, "goal_list", indexView{Cards: cards})
}

func (s *Server) handleNewGoalModal(w http.ResponseWriter, r *http.Request) {
	var modal ui.ModalState
	modal.SetContent(nil)
	modal.SetType(ui.ModalTypeGoal)
	modal.SetIsOpen(true)
	s.renderModal(w, r, nil, modal.Snapshot())
}

// handleGoalModal is the card click: the card opens the modal with its
// goal, and the modal renders the edit form for that goal.
func (s *Server) handleGoalModal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	g, err := s.goals.GetByID(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, id, err)
		return
	}
	var modal ui.ModalState
	ui.NewGoalCard(g).Open(&modal)
	s.renderModal(w, r, nil, modal.Snapshot())
}

func (s *Server) renderModal(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, snap ui.ModalSnapshot) {
	if !snap.IsOpen || snap.Type != ui.ModalTypeGoal {
		NewHTMXResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	var seed *core.Goal
	if g, ok := snap.Content.(core.Goal); ok {
		seed = &g
	}
	f := s.newForm(r, seed)
	title := "New Goal"
	if seed != nil {
		title = "Edit Goal"
	}
	s.render(w, r, b, "modal", modalView{Title: title, Form: newFormView(f)})
}

// handleIconField toggles the emoji picker. icon is the current selection;
// open=1 shows the picker.
func (s *Server) handleIconField(w http.ResponseWriter, r *http.Request) {
	f := ui.NewGoalForm(nil, nil)
	var b *HTMXResponseBuilder
	if icon := r.URL.Query().Get("icon"); icon != "" {
		if err := f.SelectEmoji(icon); err != nil {
			b = NewHTMXResponse().Status(http.StatusUnprocessableEntity)
		}
	}
	if r.URL.Query().Get("open") == "1" {
		f.ToggleEmojiPicker()
	}
	v := newIconFieldView(f)
	v.Error = f.Errors()[ui.FieldIcon]
	s.render(w, r, b, "icon_field", v)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Malformed form").Write(w)
		return
	}
	closed := false
	f := s.newForm(r, nil, ui.WithOnClose(func() { closed = true }))
	applyGoalForm(r.PostForm, f)

	g, err := f.Submit(r.Context())
	if err != nil {
		s.writeSubmitError(w, r, f, err)
		return
	}
	s.metrics.goalsCreated.Add(1)

	b := NewHTMXResponse().
		TriggerGoalCreated(g.ID).
		TriggerSuccessNotification("Goal \"" + g.Name + "\" created")
	if closed {
		b.TriggerModalClose()
	}
	b.Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		BadRequestError("Malformed form").Write(w)
		return
	}
	seed, err := s.goals.GetByID(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, id, err)
		return
	}

	closed := false
	f := s.newForm(r, &seed, ui.WithOnClose(func() { closed = true }))
	applyGoalForm(r.PostForm, f)

	g, err := f.Submit(r.Context())
	if err != nil {
		s.writeSubmitError(w, r, f, err)
		return
	}
	s.metrics.goalsUpdated.Add(1)

	b := NewHTMXResponse().
		TriggerGoalUpdated(g.ID).
		TriggerSuccessNotification("Goal \"" + g.Name + "\" updated")
	if closed {
		b.TriggerModalClose()
	}
	b.Write(w)
}

func (s *Server) writeSubmitError(w http.ResponseWriter, r *http.Request, f *ui.GoalForm, err error) {
	switch {
	case errors.Is(err, core.ErrGoalNotFound):
		NotFoundError("Goal not found").TriggerModalClose().Write(w)
	case len(f.Errors()) > 0:
		log.FromContext(r.Context()).DebugContext(r.Context(), "Goal form rejected",
			log.FieldOperation, log.OpValidate, log.FieldError, err.Error())
		b := NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			Retarget("#goal-form").
			TriggerWarningNotification("Please fix the highlighted fields")
		s.render(w, r, b, "goal_form", newFormView(f))
	default:
		op := log.OpCreate
		if f.Editing() {
			op = log.OpUpdate
		}
		s.logStoreError(r, op, f.GoalID(), err)
		InternalServerError("Could not save goal").
			TriggerErrorNotification("Could not save goal").
			Write(w)
	}
}

func (s *Server) writeLookupError(w http.ResponseWriter, r *http.Request, id string, err error) {
	if errors.Is(err, core.ErrGoalNotFound) {
		NotFoundError("Goal not found").Write(w)
		return
	}
	s.logStoreError(r, log.OpRead, id, err)
	InternalServerError("Could not load goal").Write(w)
}

func (s *Server) logStoreError(r *http.Request, op, goalID string, err error) {
	fields := log.NewFields().
		WithOperation(op).
		WithError(err, log.ErrorTypeDatabase)
	if goalID != "" {
		fields.WithGoal(goalID, "", "", "")
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Goal store error", fields.ToSlice()...)
}
