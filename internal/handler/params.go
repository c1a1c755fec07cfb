package handler

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryList accepts both repeated parameters and comma separated values.
func queryList(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryUUIDs(q url.Values, name string) ([]uuid.UUID, error) {
	raw := queryList(q, name)
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperr.Validation("invalid %s value %q", name, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func queryUUID(q url.Values, name string) (uuid.UUID, error) {
	raw := q.Get(name)
	if raw == "" {
		return uuid.Nil, apperr.Validation("parameter %s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s %q", name, raw)
	}
	return id, nil
}

func queryTime(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := model.ParseDateTime(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "invalid "+name)
	}
	return &t, nil
}

func queryBool(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("invalid %s %q", name, raw)
	}
	return &b, nil
}

func queryInt(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return n, nil
}

// queryPage reads from (offset, default 0) and size (default 10).
func queryPage(q url.Values) (model.Page, error) {
	from, err := queryInt(q, "from", 0)
	if err != nil {
		return model.Page{}, err
	}
	size, err := queryInt(q, "size", model.DefaultPageSize)
	if err != nil {
		return model.Page{}, err
	}
	if from < 0 {
		return model.Page{}, apperr.Validation("from must not be negative")
	}
	if size < 1 {
		return model.Page{}, apperr.Validation("size must be positive")
	}
	return model.Page{From: from, Size: size}, nil
}

// clientIP returns the caller address. RealIP has already applied any
// forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
