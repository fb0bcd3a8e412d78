package http

import (
	"ha-bridge/internal/domain"
)

// HAStateRequest is the DTO for one process state in a broadcast.
type HAStateRequest struct {
	Fid    string `json:"fid" validate:"required,fid"`
	Status string `json:"status" validate:"required,oneof=unknown online offline transient failed"`
}

// BroadcastRequest is the DTO for requesting an HA-state broadcast.
type BroadcastRequest struct {
	States []HAStateRequest `json:"states" validate:"required,min=1,dive"`
}

// ToDomainStates converts the DTO into domain states. Validation must
// have run first; a fid that fails to parse here is a programming error.
func (r BroadcastRequest) ToDomainStates() ([]domain.HAState, error) {
	states := make([]domain.HAState, 0, len(r.States))
	for _, s := range r.States {
		fid, err := domain.ParseFid(s.Fid)
		if err != nil {
			return nil, err
		}
		states = append(states, domain.HAState{
			Fid:    fid,
			Status: domain.HAStatus(s.Status),
		})
	}
	return states, nil
}

// BroadcastResponse returns the correlation ids of the deliveries.
type BroadcastResponse struct {
	MessageIDs []domain.MessageID `json:"message_ids"`
}

// RepairStatusResponse returns the repair progress items.
type RepairStatusResponse struct {
	Items []domain.RepairStatusItem `json:"items"`
}
