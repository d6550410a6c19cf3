package client

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestSession_AdvanceOneGraphemePerStep(t *testing.T) {
	s := NewSession()
	s.AppendText("a👍🏽é")

	var steps []string
	for {
		revealed, grew, _ := s.Advance()
		if !grew {
			break
		}
		steps = append(steps, revealed)
	}
	assert.Equal(t, []string{"a", "a👍🏽", "a👍🏽é"}, steps)
}

func TestSession_FinishedOnlyWhenCompleteAndCaughtUp(t *testing.T) {
	s := NewSession()
	s.AppendText("hi")

	_, _, finished := s.Advance()
	assert.False(t, finished)
	_, _, finished = s.Advance()
	assert.False(t, finished, "caught up but stream still open")

	s.Complete(nil)
	revealed, grew, finished := s.Advance()
	assert.Equal(t, "hi", revealed)
	assert.False(t, grew)
	assert.True(t, finished)
}

func TestSession_StatusSuppressedAfterText(t *testing.T) {
	s := NewSession()
	assert.True(t, s.SetStatus("Searching: go"))
	assert.Equal(t, "Searching: go", s.Status())

	s.AppendText("Go is")
	assert.Empty(t, s.Status())

	assert.False(t, s.SetStatus("Reading go.dev"))
	assert.Empty(t, s.Status())
}

func TestSession_Signals(t *testing.T) {
	s := NewSession()
	select {
	case <-s.Started():
		t.Fatal("started before text")
	default:
	}

	s.AppendText("x")
	s.AppendText("y")
	<-s.Started()

	boom := errors.New("boom")
	s.Complete(boom)
	s.Complete(nil)
	<-s.Done()
	assert.True(t, s.Completed())
	assert.ErrorIs(t, s.Err(), boom)
	assert.Equal(t, "xy", s.Text())
}

func TestSession_PrefixProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("revealed text is always a growing prefix of the final text", prop.ForAll(
		func(fragments []string, ticks []int) bool {
			s := NewSession()
			final := strings.Join(fragments, "")
			prev := ""
			check := func() bool {
				revealed := s.Revealed()
				ok := strings.HasPrefix(final, revealed) &&
					strings.HasPrefix(revealed, prev) &&
					len(revealed) <= len(s.Text())
				prev = revealed
				return ok
			}

			for i, f := range fragments {
				s.AppendText(f)
				n := 0
				if i < len(ticks) {
					n = ticks[i]
				}
				for j := 0; j < n; j++ {
					s.Advance()
					if !check() {
						return false
					}
				}
			}
			s.Complete(nil)
			for {
				_, _, finished := s.Advance()
				if !check() {
					return false
				}
				if finished {
					break
				}
			}
			return s.Revealed() == final
		},
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.IntRange(0, 8)),
	))

	properties.TestingRun(t)
}
