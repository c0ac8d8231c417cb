package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"isolation/game"
	"isolation/game/isolation"

	"github.com/pkg/errors"
)

// RemoteAgent asks an agent server for its moves.
type RemoteAgent struct {
	URL    string
	Client *http.Client
}

func NewRemoteAgent(url string) *RemoteAgent {
	return &RemoteAgent{URL: url, Client: http.DefaultClient}
}

// FindAction posts the board to /v1/action. The server is given the time left
// before ctx's deadline, less a margin for the round trip.
func (r *RemoteAgent) FindAction(ctx context.Context, state game.State[isolation.Action], queue *Queue[isolation.Action]) error {
	board, ok := state.(*isolation.Board)
	if !ok {
		return errors.Errorf("remote agent cannot play %T", state)
	}

	req := ActionRequest{Board: board}
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline) * 4 / 5
		if left < time.Millisecond {
			return ctx.Err()
		}
		req.TimeLimitMs = int(min(left, time.Minute) / time.Millisecond)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL+"/v1/action", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "post action request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return errors.Errorf("agent server returned status %d: %s", resp.StatusCode, out)
	}

	var ar ActionResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return errors.Wrap(err, "decode response")
	}
	queue.Put(ar.Action)
	return nil
}
