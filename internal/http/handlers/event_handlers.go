package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gatherly/eventhub/internal/domain"
	"github.com/gatherly/eventhub/internal/http/response"
	"github.com/gatherly/eventhub/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxImageSize = 10 << 20 // 10 MiB

// ListEvents is public; supports ?category= and ?upcoming=true, sorted by
// scheduled time ascending.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	var filter domain.ListEventsFilter

	if v := r.URL.Query().Get("category"); v != "" {
		cat, ok := domain.ParseCategory(v)
		if !ok {
			response.BadRequest(w, "Unknown category")
			return
		}
		filter.Category = &cat
	}
	filter.OnlyUpcoming = r.URL.Query().Get("upcoming") == "true"

	events, err := h.eventService.List(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]*domain.EventDTO, len(events))
	for i := range events {
		dtos[i] = events[i].ToDTO()
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEvent accepts a multipart form: an image part plus event fields.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	req, upload, err := parseEventForm(r, true)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	event, err := h.eventService.Create(r.Context(), claims.Sub, req, upload)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, event.ToDTO())
}

// UpdateEvent is owner-only; image replacement is optional.
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	patch, upload, err := parseEventPatchForm(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	event, err := h.eventService.Update(r.Context(), claims.Sub, id, patch, upload)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, event.ToDTO())
}

// DeleteEvent is owner-only.
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	if err := h.eventService.Delete(r.Context(), claims.Sub, id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Event removed"})
}

func (h *Handlers) JoinEvent(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	event, err := h.eventService.Join(r.Context(), claims.Sub, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, event.ToDTO())
}

func parseEventForm(r *http.Request, imageRequired bool) (*domain.CreateEventRequest, *service.Upload, error) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		return nil, nil, domain.NewValidationError("form", "invalid multipart form")
	}

	req := &domain.CreateEventRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    domain.Category(r.FormValue("category")),
		Location:    r.FormValue("location"),
	}

	if v := r.FormValue("date_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, nil, domain.NewValidationError("date_time", "must be an RFC 3339 timestamp")
		}
		req.DateTime = t
	}

	if v := r.FormValue("max_attendees"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, nil, domain.NewValidationError("max_attendees", "must be a number")
		}
		req.MaxAttendees = &n
	}

	upload, err := formImage(r)
	if err != nil {
		return nil, nil, err
	}
	if upload == nil && imageRequired {
		return nil, nil, domain.NewValidationError("image", "is required")
	}

	return req, upload, nil
}

func parseEventPatchForm(r *http.Request) (*domain.UpdateEventRequest, *service.Upload, error) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		return nil, nil, domain.NewValidationError("form", "invalid multipart form")
	}

	patch := &domain.UpdateEventRequest{}

	if v := r.FormValue("name"); v != "" {
		patch.Name = &v
	}
	if v := r.FormValue("description"); v != "" {
		patch.Description = &v
	}
	if v := r.FormValue("location"); v != "" {
		patch.Location = &v
	}
	if v := r.FormValue("category"); v != "" {
		cat := domain.Category(v)
		patch.Category = &cat
	}
	if v := r.FormValue("date_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, nil, domain.NewValidationError("date_time", "must be an RFC 3339 timestamp")
		}
		patch.DateTime = &t
	}
	if v := r.FormValue("max_attendees"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, nil, domain.NewValidationError("max_attendees", "must be a number")
		}
		patch.MaxAttendees = &n
	}

	upload, err := formImage(r)
	if err != nil {
		return nil, nil, err
	}

	return patch, upload, nil
}

func formImage(r *http.Request) (*service.Upload, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewValidationError("image", "invalid file upload")
	}
	return &service.Upload{Filename: header.Filename, Content: file}, nil
}
