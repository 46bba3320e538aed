package media

import (
	"math"
	"testing"
	"time"
)

func TestLevelToVolume(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{0, -10},
		{-0.5, -10},
		{0.25, -2},
		{0.5, -1},
		{1, 0},
		{1.5, 0},
	}

	for _, tt := range tests {
		got := levelToVolume(tt.level)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("levelToVolume(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestDecodeStream_GarbageFails(t *testing.T) {
	if _, _, err := decodeStream("audio/mpeg", "http://x/y.mp3", []byte("not audio")); err == nil {
		t.Error("mp3 decode of garbage should fail")
	}
	if _, _, err := decodeStream("audio/flac", "http://x/y.flac", []byte("not audio")); err == nil {
		t.Error("flac decode of garbage should fail")
	}
}

func TestMock_RecordsAndFires(t *testing.T) {
	m := NewMock()

	var (
		timeUpdates []time.Duration
		metadata    []time.Duration
		errs        []string
		buffering   int
		playing     int
		ended       int
	)
	m.SetEvents(Events{
		OnTimeUpdate:    func(d time.Duration) { timeUpdates = append(timeUpdates, d) },
		OnMetadataReady: func(d time.Duration) { metadata = append(metadata, d) },
		OnBuffering:     func() { buffering++ },
		OnPlaying:       func() { playing++ },
		OnEnded:         func() { ended++ },
		OnError:         func(msg string) { errs = append(errs, msg) },
	})

	if err := m.Load(t.Context(), "http://x/y.mp3"); err != nil {
		t.Fatal(err)
	}
	if err := m.Play(); err != nil {
		t.Fatal(err)
	}
	m.Pause()
	m.SetCurrentTime(30 * time.Second)
	m.SetVolume(0.5)
	m.SetMuted(true)
	m.ClearSource()

	if len(m.LoadCalls) != 1 || m.LoadCalls[0] != "http://x/y.mp3" {
		t.Errorf("LoadCalls = %v", m.LoadCalls)
	}
	if m.PlayCalls != 1 || m.PauseCalls != 1 || m.ClearCalls != 1 {
		t.Errorf("calls = %d/%d/%d", m.PlayCalls, m.PauseCalls, m.ClearCalls)
	}
	if len(m.SeekCalls) != 1 || m.SeekCalls[0] != 30*time.Second {
		t.Errorf("SeekCalls = %v", m.SeekCalls)
	}
	if len(m.VolumeSets) != 1 || m.VolumeSets[0] != 0.5 {
		t.Errorf("VolumeSets = %v", m.VolumeSets)
	}
	if len(m.MutedSets) != 1 || !m.MutedSets[0] {
		t.Errorf("MutedSets = %v", m.MutedSets)
	}

	m.FireBuffering()
	m.FirePlaying()
	m.FireTimeUpdate(5 * time.Second)
	m.FireMetadataReady(3 * time.Minute)
	m.FireEnded()
	m.FireError("boom")

	if buffering != 1 || playing != 1 || ended != 1 {
		t.Errorf("events = %d/%d/%d", buffering, playing, ended)
	}
	if len(timeUpdates) != 1 || timeUpdates[0] != 5*time.Second {
		t.Errorf("timeUpdates = %v", timeUpdates)
	}
	if len(metadata) != 1 || metadata[0] != 3*time.Minute {
		t.Errorf("metadata = %v", metadata)
	}
	if len(errs) != 1 || errs[0] != "boom" {
		t.Errorf("errs = %v", errs)
	}
}
