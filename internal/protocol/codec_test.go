package protocol

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/cardduel/internal/model"
)

func sampleMessages() []Message {
	usernames := map[model.PlayerID]string{0: "Ann", 1: "Bo"}
	hps := map[model.PlayerID]int{0: 100, 1: 90}
	return []Message{
		PlayerAssigned{ID: model.Player1},
		Ready{Username: "Ann"},
		Ready{},
		Choice{Choice: model.Card{Rank: model.RankRock, Effect: model.EffectPowerAttack}},
		InstaWin{},
		PlayerUpdate{Message: "Ann is ready. Waiting for opponent...", Usernames: usernames},
		GameState{
			Message:     "Game started! Make your choice.",
			HPs:         hps,
			RoundStatus: model.StatusWaitingForChoices,
			PlayerHand: []model.Card{
				{Rank: model.RankRock, Effect: model.EffectNone},
				{Rank: model.RankPaper, Effect: model.EffectCounterDamage},
				{Rank: model.RankScissors, Effect: model.EffectPowerAttack},
			},
			Usernames: usernames,
		},
		RoundResult{
			Message:       "Ann wins the round! Bo takes 10 damage.",
			Player0Choice: model.Card{Rank: model.RankRock, Effect: model.EffectNone},
			Player1Choice: model.Card{Rank: model.RankScissors, Effect: model.EffectNone},
			RPSWinner:     model.Player0,
			HPs:           hps,
			RoundStatus:   model.StatusRoundOver,
			GameOver:      false,
			Usernames:     usernames,
		},
		RoundResult{RPSWinner: model.NoPlayer, HPs: hps, Usernames: usernames, RoundStatus: model.StatusRoundOver},
		Error{Message: "Server is full."},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, m := range sampleMessages() {
		t.Run(string(m.MessageType()), func(t *testing.T) {
			frame, err := Encode(m)
			require.NoError(t, err)

			dec := NewDecoder(0)
			got, err := dec.Feed(frame)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, m, got[0])
			assert.Zero(t, dec.Buffered())
		})
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	var stream []byte
	msgs := sampleMessages()
	for _, m := range msgs {
		frame, err := Encode(m)
		require.NoError(t, err)
		stream = append(stream, frame...)
	}

	dec := NewDecoder(0)
	var got []Message
	for i := range stream {
		out, err := dec.Feed(stream[i : i+1])
		require.NoError(t, err)
		got = append(got, out...)
	}
	assert.Equal(t, msgs, got)
	assert.Zero(t, dec.Buffered())
}

func TestDecoderManyFramesInOneRead(t *testing.T) {
	var stream []byte
	for i := range 5 {
		frame, err := Encode(Ready{Username: fmt.Sprintf("p%d", i)})
		require.NoError(t, err)
		stream = append(stream, frame...)
	}
	// Trailing partial frame stays buffered
	partial, err := Encode(InstaWin{})
	require.NoError(t, err)
	stream = append(stream, partial[:HeaderLength+3]...)

	dec := NewDecoder(0)
	got, err := dec.Feed(stream)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, Ready{Username: "p4"}, got[4])
	assert.Equal(t, 3, dec.Buffered())

	got, err = dec.Feed(partial[HeaderLength+3:])
	require.NoError(t, err)
	assert.Equal(t, []Message{InstaWin{}}, got)
}

func TestFrameHeaderIsLeftJustifiedDecimal(t *testing.T) {
	frame := Frame([]byte("abc"))
	assert.Equal(t, "3         abc", string(frame))

	frame = Frame(bytes.Repeat([]byte("x"), 1234))
	assert.Equal(t, "1234      ", string(frame[:HeaderLength]))
}

func TestDecoderAcceptsRightJustifiedHeader(t *testing.T) {
	payload, err := Marshal(InstaWin{})
	require.NoError(t, err)
	frame := append([]byte(fmt.Sprintf("%*d", HeaderLength, len(payload))), payload...)

	got, err := NewDecoder(0).Feed(frame)
	require.NoError(t, err)
	assert.Equal(t, []Message{InstaWin{}}, got)
}

func TestDecoderErrors(t *testing.T) {
	good, err := Encode(Ready{Username: "Ann"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   []byte
		wantErr error
		wantN   int // messages returned before the error
	}{
		{
			name:    "non-numeric header",
			input:   []byte("abcdefghij{}"),
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "negative length",
			input:   []byte("-5        {}"),
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "blank header",
			input:   []byte("          {}"),
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "oversized frame",
			input:   []byte("999999999 "),
			wantErr: ErrFrameTooLarge,
		},
		{
			name:    "unknown type",
			input:   Frame([]byte(`{"v":1,"type":"teleport","data":{}}`)),
			wantErr: ErrUnknownType,
		},
		{
			name:    "wrong version",
			input:   Frame([]byte(`{"v":7,"type":"ready","data":{}}`)),
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:  "corrupt payload after a good frame",
			input: append(append([]byte{}, good...), Frame([]byte(`{"v":1,`))...),
			wantN: 1,
		},
		{
			name:  "data of the wrong shape",
			input: Frame([]byte(`{"v":1,"type":"choice","data":{"choice":"rock"}}`)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDecoder(0).Feed(tt.input)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Len(t, got, tt.wantN)
		})
	}
}

func TestDecoderCustomMaxFrame(t *testing.T) {
	frame, err := Encode(Ready{Username: "a fairly long username"})
	require.NoError(t, err)

	_, err = NewDecoder(8).Feed(frame)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestInstaWinWithoutData(t *testing.T) {
	m, err := Unmarshal([]byte(`{"v":1,"type":"insta_win"}`))
	require.NoError(t, err)
	assert.Equal(t, InstaWin{}, m)
}

func TestGameStateEmptyHandEncodesAsArray(t *testing.T) {
	payload, err := Marshal(GameState{PlayerHand: []model.Card{}, RoundStatus: model.StatusEnteringUsername})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"player_hand":[]`)
}

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, Error{Message: "Server is full."}))

	got, err := NewDecoder(0).Feed(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []Message{Error{Message: "Server is full."}}, got)
}

func TestFromClient(t *testing.T) {
	assert.True(t, FromClient(TypeReady))
	assert.True(t, FromClient(TypeChoice))
	assert.True(t, FromClient(TypeInstaWin))
	assert.False(t, FromClient(TypeGameState))
	assert.False(t, FromClient(TypeError))
}
