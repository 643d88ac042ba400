package handlers

import "github.com/pulsewatch/server/pkg/client"

func NewResponse(messages ...string) client.Response {
	return client.Response{
		Messages: messages,
	}
}
