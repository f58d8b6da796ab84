package grpcgw

import (
	"context"

	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
)

type selectRequest struct {
	Collection string        `json:"collection"`
	Query      gateway.Query `json:"query"`
}

type rowsReply struct {
	Rows []gateway.Row `json:"rows"`
}

type rowRequest struct {
	Collection string      `json:"collection"`
	ID         int64       `json:"id,omitempty"`
	Row        gateway.Row `json:"row,omitempty"`
}

type rowReply struct {
	Row gateway.Row `json:"row"`
}

func (c *Client) Select(ctx context.Context, collection string, q gateway.Query) ([]gateway.Row, error) {
	var resp rowsReply
	if err := c.invoke(ctx, methodSelect, selectRequest{Collection: collection, Query: q}, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

func (c *Client) Insert(ctx context.Context, collection string, row gateway.Row) (gateway.Row, error) {
	var resp rowReply
	if err := c.invoke(ctx, methodInsert, rowRequest{Collection: collection, Row: row}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Row) == 0 {
		return nil, gateway.ErrEmptyResult
	}
	return resp.Row, nil
}

func (c *Client) Update(ctx context.Context, collection string, id int64, patch gateway.Row) (gateway.Row, error) {
	var resp rowReply
	if err := c.invoke(ctx, methodUpdate, rowRequest{Collection: collection, ID: id, Row: patch}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Row) == 0 {
		return nil, &gateway.Error{Op: "Update", Code: gateway.CodeNotFound, Message: "no row updated"}
	}
	return resp.Row, nil
}

func (c *Client) Delete(ctx context.Context, collection string, id int64) error {
	return c.invoke(ctx, methodDelete, rowRequest{Collection: collection, ID: id}, nil)
}

var (
	_ gateway.Identity    = (*Client)(nil)
	_ gateway.Collections = (*Client)(nil)
)
