// Package audio implements the BGM/SE/voice Audio collaborator
// dispatch.Dispatcher needs, built on beep's mp3.Decode +
// speaker.Init/Play pattern, generalized from a single sound effect to
// the multi-channel BGM/SE/aux/voice model
// original_source/include/audio.h's `audio_*` call sites describe.
package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const seChannels = 4

// Player streams BGM, sound effects, aux tracks, and voice from a
// filesystem directory of MP3s, one speaker per logical channel per
// original_source's audio_se_play(name, channel)/audio_aux_play.
type Player struct {
	dir string

	initialized bool
	sampleRate  beep.SampleRate

	bgm       beep.StreamSeekCloser
	bgmCtrl   *beep.Ctrl
	bgmVolume uint32

	se  [seChannels]beep.StreamSeekCloser
	aux map[uint32]beep.StreamSeekCloser

	voice beep.StreamSeekCloser
}

// New returns a Player that resolves track names under dir, per
// spec.md §6's "Out of scope: decoding title audio formats" treating
// the asset directory as an external collaborator's concern -- tracks
// here are expected to already be MP3.
func New(dir string) *Player {
	return &Player{dir: dir, aux: map[uint32]beep.StreamSeekCloser{}}
}

func (p *Player) open(name string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(p.dir + "/" + name + ".mp3")
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("audio: open %q: %w", name, err)
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("audio: decode %q: %w", name, err)
	}
	return streamer, format, nil
}

func (p *Player) ensureInit(format beep.Format) {
	if p.initialized {
		return
	}
	speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	p.sampleRate = format.SampleRate
	p.initialized = true
}

// BGMPlay implements System.Audio.function[0], grounded on
// original_source's audio_bgm_play: stops any currently playing track
// first, matching the single-BGM-slot model.
func (p *Player) BGMPlay(name string, loop bool) error {
	p.BGMStop()
	streamer, format, err := p.open(name)
	if err != nil {
		return err
	}
	p.ensureInit(format)
	p.bgm = streamer
	var s beep.Streamer = streamer
	if loop {
		s = beep.Loop(-1, streamer)
	}
	p.bgmCtrl = &beep.Ctrl{Streamer: s}
	speaker.Play(p.bgmCtrl)
	return nil
}

func (p *Player) BGMStop() {
	if p.bgmCtrl == nil {
		return
	}
	speaker.Lock()
	p.bgmCtrl.Paused = true
	speaker.Unlock()
	if p.bgm != nil {
		p.bgm.Close()
	}
	p.bgm, p.bgmCtrl = nil, nil
}

// BGMFade is a generalization: original_source's audio_bgm_fade ticks a
// volume ramp on its own mixer thread, which beep's speaker package
// doesn't expose directly. This records the target volume without
// applying it to the playing track and does no ramp over ms; a target
// of 0 with fadeIn false stops the BGM at once. sync is accepted for
// interface parity and ignored.
func (p *Player) BGMFade(volume, ms uint32, sync, fadeIn bool) {
	p.bgmVolume = volume
	if volume == 0 && !fadeIn {
		p.BGMStop()
	}
}

func (p *Player) BGMSetVolume(v uint32) { p.bgmVolume = v }

func (p *Player) SEPlay(name string, channel uint32) error {
	i := channel % seChannels
	if p.se[i] != nil {
		p.se[i].Close()
	}
	streamer, format, err := p.open(name)
	if err != nil {
		return err
	}
	p.ensureInit(format)
	p.se[i] = streamer
	speaker.Play(streamer)
	return nil
}

func (p *Player) SEStop(channel uint32) {
	i := channel % seChannels
	if p.se[i] == nil {
		return
	}
	p.se[i].Close()
	p.se[i] = nil
}

func (p *Player) AuxPlay(name string, channel uint32) error {
	if old, ok := p.aux[channel]; ok {
		old.Close()
	}
	streamer, format, err := p.open(name)
	if err != nil {
		return err
	}
	p.ensureInit(format)
	p.aux[channel] = streamer
	speaker.Play(streamer)
	return nil
}

func (p *Player) AuxStop(channel uint32) {
	if s, ok := p.aux[channel]; ok {
		s.Close()
		delete(p.aux, channel)
	}
}

func (p *Player) VoicePlay(name string) error {
	p.VoiceStop()
	streamer, format, err := p.open(name)
	if err != nil {
		return err
	}
	p.ensureInit(format)
	p.voice = streamer
	speaker.Play(streamer)
	return nil
}

func (p *Player) VoiceStop() {
	if p.voice == nil {
		return
	}
	p.voice.Close()
	p.voice = nil
}
