package service

import (
	"context"

	"groupreview-bot/internal/domain"
)

// ReviewService decides and answers group join requests
type ReviewService interface {
	Handle(ctx context.Context, event domain.Event)
	Submit(event domain.Event)
	DecideAndDispatch(ctx context.Context, req domain.JoinRequest) (domain.Decision, bool)
	Dispatch(ctx context.Context, req domain.JoinRequest, decision domain.Decision) bool
	Close()
}

// GroupRequestResponder is a bot client able to answer join requests
type GroupRequestResponder interface {
	SetGroupAddRequest(ctx context.Context, params domain.GroupAddRequestParams) error
}
