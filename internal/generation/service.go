package generation

import (
	"context"

	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
)

// ImageProvider is the outbound surface the service needs; satisfied by
// *Client and by stubs in tests.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt, size string) (string, error)
	EditImage(ctx context.Context, imageURL, prompt, size string) (string, error)
}

// GenerateRequest is a prompt for a fresh image.
type GenerateRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=4000"`
	Size   string `json:"size,omitempty" validate:"omitempty,oneof=256x256 512x512 1024x1024"`
}

// EditRequest reworks an existing canvas element image.
type EditRequest struct {
	ImageURL string `json:"imageUrl" validate:"required,url"`
	Prompt   string `json:"prompt" validate:"required,min=1,max=4000"`
	Size     string `json:"size,omitempty" validate:"omitempty,oneof=256x256 512x512 1024x1024"`
}

// Result carries the provider-hosted image URL back to the canvas.
type Result struct {
	URL string `json:"url"`
}

type ServiceParams struct {
	Provider ImageProvider
}

type Service struct {
	provider ImageProvider
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "image provider required")
	}
	return &Service{provider: params.Provider}, nil
}

func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	url, err := s.provider.GenerateImage(ctx, req.Prompt, req.Size)
	if err != nil {
		return nil, err
	}
	return &Result{URL: url}, nil
}

func (s *Service) Edit(ctx context.Context, req EditRequest) (*Result, error) {
	url, err := s.provider.EditImage(ctx, req.ImageURL, req.Prompt, req.Size)
	if err != nil {
		return nil, err
	}
	return &Result{URL: url}, nil
}
