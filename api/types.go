// Package api - API types
// Every request is normalized into an envelope before the engine sees it.
package api

import (
	"encoding/json"

	"storformat/core/pricing"
	"storformat/core/types"
)

// PriceRequest is the input to POST /price. Without an inline catalog the catalog is
// resolved from the configured store.
type PriceRequest struct {
	Selection types.SelectionState `json:"selection"`
	Catalog   json.RawMessage      `json:"catalog,omitempty"`
}

// PriceResponse is the output of POST /price. Price is null when the product has no
// pricing.
type PriceResponse struct {
	Selection types.SelectionState `json:"selection"`
	Price     *pricing.Result      `json:"price"`
	Metadata  ResponseMetadata     `json:"metadata"`
}

// RenderRequest is the input to POST /render
type RenderRequest struct {
	Selection    types.SelectionState   `json:"selection"`
	Design       *DesignRequest         `json:"design,omitempty"`
	Foils        []types.CutLettersFoil `json:"foils,omitempty"`
	ActiveFoilID int                    `json:"active_foil_id,omitempty"`
}

// DesignRequest places an image. Without a placement the image is placed at its
// natural print size from WidthPx × HeightPx.
type DesignRequest struct {
	Href      string                 `json:"href"`
	WidthPx   int                    `json:"width_px,omitempty"`
	HeightPx  int                    `json:"height_px,omitempty"`
	Placement *types.DesignPlacement `json:"placement,omitempty"`
}

// CheckoutRequest is the input to POST /checkout
type CheckoutRequest struct {
	Selection    types.SelectionState   `json:"selection"`
	Catalog      json.RawMessage        `json:"catalog,omitempty"`
	Upload       *UploadRequest         `json:"upload,omitempty"`
	Foils        []types.CutLettersFoil `json:"foils,omitempty"`
	ActiveFoilID int                    `json:"active_foil_id,omitempty"`
}

// UploadRequest carries a design file. Data is base64 in JSON.
type UploadRequest struct {
	Name      string                 `json:"name"`
	Data      []byte                 `json:"data"`
	Placement *types.DesignPlacement `json:"placement,omitempty"`
}

// CheckoutResponse is the output of POST /checkout
type CheckoutResponse struct {
	RedirectURL string           `json:"redirect_url"`
	Metadata    ResponseMetadata `json:"metadata"`
}

// CatalogResponse is the output of GET /catalog
type CatalogResponse struct {
	Found     bool             `json:"found"`
	Signature string           `json:"signature,omitempty"`
	Store     string           `json:"store,omitempty"`
	Key       string           `json:"key,omitempty"`
	Products  []ProductSummary `json:"products"`
}

// ProductSummary describes one catalog product
type ProductSummary struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Priced    bool   `json:"priced"`
	Materials int    `json:"materials"`
	Finishes  int    `json:"finishes"`
}

// ResponseMetadata describes how a response was produced
type ResponseMetadata struct {
	InputHash        string `json:"input_hash"`
	CatalogSignature string `json:"catalog_signature,omitempty"`
	CatalogSource    string `json:"catalog_source,omitempty"`
	EngineVersion    string `json:"engine_version"`
	DurationMs       int64  `json:"duration_ms"`
}

// ErrorResponse is the body of every error
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes an error
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
