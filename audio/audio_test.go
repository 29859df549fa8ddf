package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsBluetooth(t *testing.T) {
	for _, tt := range []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"Built-in Microphone", false},
		{"Jabra Evolve 65", true},
		{"USB Audio Device", false},
		{"Headset (BT)", true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBluetooth(tt.name); got != tt.want {
				t.Errorf("IsBluetooth(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestPCMRoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 1234}
	got := Samples(PCM(in))
	if len(got) != len(in) {
		t.Fatalf("len = %d, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], in[i])
		}
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakePCMContext(nil, false)

	dev, err := FindDevice(ctx, "")
	if err != nil || dev != nil {
		t.Fatalf("empty name: got %v, %v; want nil, nil", dev, err)
	}

	dev, err = FindDevice(ctx, "FAK")
	if err != nil {
		t.Fatal(err)
	}
	if dev == nil || dev.Name != "fake" {
		t.Errorf("got %+v, want fake device", dev)
	}

	if _, err := FindDevice(ctx, "nope"); err == nil {
		t.Error("expected error for unknown device")
	}
}

func TestFakeCaptureFeedsPCMThenSilence(t *testing.T) {
	pcm := PCM([]int16{100, 200, 300})
	ctx := NewFakePCMContext(pcm, false)
	dev, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}

	chunks := make(chan []byte, 16)
	dev.SetCallback(func(data []byte, _ uint32) {
		select {
		case chunks <- data:
		default:
		}
	})
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	first := <-chunks
	if len(first) != len(pcm) {
		t.Fatalf("first chunk = %d bytes, want %d", len(first), len(pcm))
	}
	second := <-chunks
	for _, b := range second {
		if b != 0 {
			t.Fatal("expected silence after pcm exhausted")
		}
	}
}

func TestFakePlayerRecordsClips(t *testing.T) {
	p := &FakePlayer{}
	cfg := PlaybackConfig{SampleRate: 24000, Channels: 1}
	if err := p.Play(context.Background(), []byte{1, 2}, cfg); err != nil {
		t.Fatal(err)
	}
	if got := p.Clips(); len(got) != 1 || len(got[0]) != 2 {
		t.Errorf("clips = %v", got)
	}
	if got := p.Configs(); got[0] != cfg {
		t.Errorf("config = %+v, want %+v", got[0], cfg)
	}

	p.Err = errors.New("device gone")
	if err := p.Play(context.Background(), []byte{1}, cfg); err == nil {
		t.Error("expected error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	p.Err = nil
	if err := p.Play(ctx, []byte{1}, cfg); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
