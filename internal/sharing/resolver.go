// Package sharing produces invite links for trips and resolves incoming links
// back to a trip id. Links are not signed and never expire: anyone holding a
// trip id may join that trip.
package sharing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/tripmate/internal/domain"
)

// TripSharer marks trips as shared. *service.TripService satisfies it.
type TripSharer interface {
	ShareTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error)
}

// Resolver creates invite links rooted at the public web app URL.
type Resolver struct {
	trips TripSharer
	base  *url.URL
}

// NewResolver returns a Resolver building links under baseURL, which must be
// an absolute http or https URL.
func NewResolver(trips TripSharer, baseURL string) (*Resolver, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("sharing: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("sharing: base url %q must be an absolute http(s) url", baseURL)
	}
	u.RawQuery, u.Fragment = "", ""
	return &Resolver{trips: trips, base: u}, nil
}

// ShareTrip marks the trip shared and returns a link that opens the join flow.
// Returns domain.ErrNotFound if the trip does not exist.
func (r *Resolver) ShareTrip(ctx context.Context, tripID uuid.UUID) (domain.Invite, error) {
	trip, err := r.trips.ShareTrip(ctx, tripID)
	if err != nil {
		return domain.Invite{}, fmt.Errorf("sharing.Resolver.ShareTrip: %w", err)
	}
	return domain.Invite{TripID: trip.ID, URL: r.InviteURL(trip.ID, true)}, nil
}

// InviteURL returns {base}/trips/{id}, with ?join=1 when join is set.
func (r *Resolver) InviteURL(tripID uuid.UUID, join bool) string {
	u := r.base.JoinPath("trips", tripID.String())
	if join {
		u.RawQuery = url.Values{"join": {"1"}}.Encode()
	}
	return u.String()
}

// ResolveInviteLink extracts the trip id from an invite link. It accepts
// absolute or relative links of the forms
//
//	/trips/{id}   /trip/{id}   /join/{id}   ?trip={id}   #/trips/{id}
//
// as well as a bare trip id. The link requests the join flow when its path
// starts at /join/, or its query has join=1|true|yes or action=join.
// It reports false when no trip id can be found.
func ResolveInviteLink(raw string) (domain.InviteTarget, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.InviteTarget{}, false
	}
	if id, err := uuid.Parse(raw); err == nil {
		return domain.InviteTarget{TripID: id}, true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return domain.InviteTarget{}, false
	}
	if target, ok := resolve(u); ok {
		return target, true
	}
	// Hash-routed web apps keep their route in the fragment.
	if u.Fragment != "" {
		if frag, err := url.Parse(u.Fragment); err == nil {
			if target, ok := resolve(frag); ok {
				target.Join = target.Join || joinRequested(u.Query())
				return target, true
			}
		}
	}
	return domain.InviteTarget{}, false
}

func resolve(u *url.URL) (domain.InviteTarget, bool) {
	q := u.Query()
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	for i := 0; i+1 < len(segments); i++ {
		switch strings.ToLower(segments[i]) {
		case "trips", "trip", "join":
		default:
			continue
		}
		id, err := uuid.Parse(segments[i+1])
		if err != nil {
			continue
		}
		join := strings.EqualFold(segments[i], "join") || joinRequested(q)
		return domain.InviteTarget{TripID: id, Join: join}, true
	}

	if id, err := uuid.Parse(q.Get("trip")); err == nil {
		return domain.InviteTarget{TripID: id, Join: joinRequested(q)}, true
	}
	return domain.InviteTarget{}, false
}

func joinRequested(q url.Values) bool {
	switch strings.ToLower(q.Get("join")) {
	case "1", "true", "yes":
		return true
	}
	return strings.EqualFold(q.Get("action"), "join")
}
