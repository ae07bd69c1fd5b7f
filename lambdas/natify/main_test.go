package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"natify.dev/natify/internal/failover"
	"natify.dev/natify/internal/reconcile"
)

type mockLookup struct {
	id    string
	err   error
	calls int
}

func (m *mockLookup) LookupVPCID(ctx context.Context, name string) (string, error) {
	m.calls++
	return m.id, m.err
}

func newTestHandler(env failover.Target, vpcName string, lookup vpcLookup) *handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &handler{
		env:          env,
		vpcName:      vpcName,
		lookup:       lookup,
		orchestrator: failover.New(reconcile.New(reconcile.Clients{}, logger), failover.WithLogger(logger)),
		logger:       logger,
	}
}

func TestHandle_MissingVPC(t *testing.T) {
	h := newTestHandler(failover.Target{InstanceID: "i-nat", SecurityGroupID: "sg-1"}, "", nil)

	resp, err := h.Handle(context.Background(), failover.Target{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VPC_ID not found", resp.Body)
}

func TestHandle_EventOverridesEnv(t *testing.T) {
	h := newTestHandler(failover.Target{VPCID: "vpc-env"}, "", nil)

	resp, err := h.Handle(context.Background(), failover.Target{VPCID: "vpc-event"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NAT_INSTANCE_ID not found", resp.Body)
}

func TestHandle_VPCNameLookup(t *testing.T) {
	lookup := &mockLookup{err: errors.New("ParameterNotFound")}
	h := newTestHandler(failover.Target{InstanceID: "i-nat", SecurityGroupID: "sg-1"}, "Production-VPC", lookup)

	resp, err := h.Handle(context.Background(), failover.Target{})
	require.NoError(t, err)
	assert.Equal(t, 1, lookup.calls)
	assert.Equal(t, "VPC_ID not found", resp.Body)
}

func TestHandle_VPCIDSkipsLookup(t *testing.T) {
	lookup := &mockLookup{id: "vpc-ssm"}
	h := newTestHandler(failover.Target{VPCID: "vpc-env"}, "Production-VPC", lookup)

	_, err := h.Handle(context.Background(), failover.Target{})
	require.NoError(t, err)
	assert.Zero(t, lookup.calls)
}

func TestHandle_MissingIDsSkipLookup(t *testing.T) {
	tests := []struct {
		name string
		env  failover.Target
		body string
	}{
		{"no instance", failover.Target{SecurityGroupID: "sg-1"}, "NAT_INSTANCE_ID not found"},
		{"no security group", failover.Target{InstanceID: "i-nat"}, "NAT_SECURITY_GROUP_ID not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &mockLookup{id: "vpc-ssm"}
			h := newTestHandler(tt.env, "Production-VPC", lookup)

			resp, err := h.Handle(context.Background(), failover.Target{})
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.body, resp.Body)
			assert.Zero(t, lookup.calls)
		})
	}
}
