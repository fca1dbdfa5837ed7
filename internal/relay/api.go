package relay

import "axolotl/internal/domain"

type uploadRequest struct {
	PreKeys []domain.PublishedPreKey `json:"prekeys"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type ackRequest struct {
	Count int `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}
