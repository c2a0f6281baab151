// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package thresholdsigner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/crypto"
)

func TestCeremonySubmitCommitmentTransitionsToSigning(t *testing.T) {
	scheme := crypto.NewEVMScheme()
	shares, pub, err := scheme.GenerateKeyShares(1, 1)
	require.NoError(t, err)
	participants := common.AddressList{common.BytesToAddress([]byte{1})}
	keyShares := map[common.Address]crypto.KeyShare{participants[0]: shares[0]}

	c := NewCeremony(CeremonyID{Request: 1}, scheme, participants, keyShares, pub, []byte("payload"))
	require.False(t, c.ReadyToSign())

	commit, _, err := scheme.CommitNonce()
	require.NoError(t, err)
	require.NoError(t, c.SubmitCommitment(participants[0], commit))
	require.True(t, c.ReadyToSign())
}

func TestCeremonySubmitCommitmentRejectsUnknownParticipant(t *testing.T) {
	scheme := crypto.NewEVMScheme()
	shares, pub, err := scheme.GenerateKeyShares(1, 1)
	require.NoError(t, err)
	participants := common.AddressList{common.BytesToAddress([]byte{1})}
	keyShares := map[common.Address]crypto.KeyShare{participants[0]: shares[0]}
	c := NewCeremony(CeremonyID{Request: 1}, scheme, participants, keyShares, pub, []byte("payload"))

	commit, _, err := scheme.CommitNonce()
	require.NoError(t, err)
	err = c.SubmitCommitment(common.BytesToAddress([]byte{99}), commit)
	require.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestCeremonyFinishAggregatesValidSignature(t *testing.T) {
	scheme := crypto.NewEVMScheme()
	shares, pub, err := scheme.GenerateKeyShares(2, 2)
	require.NoError(t, err)
	participants := common.AddressList{common.BytesToAddress([]byte{1}), common.BytesToAddress([]byte{2})}
	keyShares := map[common.Address]crypto.KeyShare{participants[0]: shares[0], participants[1]: shares[1]}
	payload := []byte("ceremony-payload")

	c := NewCeremony(CeremonyID{Request: 1}, scheme, participants, keyShares, pub, payload)

	commits := make([]crypto.NonceCommitment, 2)
	secrets := make([]crypto.NonceSecret, 2)
	for i, p := range participants {
		commit, secret, err := scheme.CommitNonce()
		require.NoError(t, err)
		commit.Index = shares[i].Index
		commits[i] = commit
		secrets[i] = secret
		require.NoError(t, c.SubmitCommitment(p, commit))
	}
	require.True(t, c.ReadyToSign())

	for i, p := range participants {
		share, err := scheme.SignShare(keyShares[p], secrets[i], c.Commitments(), payload)
		require.NoError(t, err)
		require.NoError(t, c.SubmitShare(p, share))
	}

	sig, err := c.Finish()
	require.NoError(t, err)
	require.NoError(t, scheme.Verify(pub, payload, sig))
}

func TestCeremonyAwaitTimesOutWhenParticipantMissing(t *testing.T) {
	scheme := crypto.NewEVMScheme()
	shares, pub, err := scheme.GenerateKeyShares(2, 2)
	require.NoError(t, err)
	participants := common.AddressList{common.BytesToAddress([]byte{1}), common.BytesToAddress([]byte{2})}
	keyShares := map[common.Address]crypto.KeyShare{participants[0]: shares[0], participants[1]: shares[1]}

	c := NewCeremony(CeremonyID{Request: 1}, scheme, participants, keyShares, pub, []byte("payload"))
	commit, _, err := scheme.CommitNonce()
	require.NoError(t, err)
	require.NoError(t, c.SubmitCommitment(participants[0], commit))
	// participants[1] never commits or signs.

	err = c.Await(context.Background(), 50*time.Millisecond)
	require.ErrorIs(t, err, ErrCeremonyTimedOut)

	missing := c.MissingParticipants()
	require.Equal(t, common.AddressList{participants[1]}, missing)
}

func TestCeremonyAwaitRespectsContextCancellation(t *testing.T) {
	scheme := crypto.NewEVMScheme()
	shares, pub, err := scheme.GenerateKeyShares(1, 1)
	require.NoError(t, err)
	participants := common.AddressList{common.BytesToAddress([]byte{1})}
	keyShares := map[common.Address]crypto.KeyShare{participants[0]: shares[0]}
	c := NewCeremony(CeremonyID{Request: 1}, scheme, participants, keyShares, pub, []byte("payload"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.Await(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}
