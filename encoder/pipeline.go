package encoder

import (
	"encoding/binary"
	"sync"
)

// Pipeline encodes PCM in the background while it is still being captured.
// Feed may be called from the audio callback; Finish flushes and returns the
// encoded bytes.
type Pipeline struct {
	enc        Encoder
	blockChan  chan []int16
	encodeDone chan struct{}

	mu        sync.Mutex
	sampleBuf []int16
	err       error
	finished  bool
}

func NewPipeline(enc Encoder) *Pipeline {
	p := &Pipeline{
		enc:        enc,
		blockChan:  make(chan []int16, 64),
		encodeDone: make(chan struct{}),
	}
	go func() {
		defer close(p.encodeDone)
		for block := range p.blockChan {
			if err := p.enc.EncodeBlock(block); err != nil {
				p.mu.Lock()
				if p.err == nil {
					p.err = err
				}
				p.mu.Unlock()
			}
		}
	}()
	return p
}

// Feed accepts little-endian 16-bit samples.
func (p *Pipeline) Feed(pcm []byte) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		p.sampleBuf = append(p.sampleBuf, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	var blocks [][]int16
	for len(p.sampleBuf) >= BlockSize {
		block := make([]int16, BlockSize)
		copy(block, p.sampleBuf[:BlockSize])
		p.sampleBuf = p.sampleBuf[BlockSize:]
		blocks = append(blocks, block)
	}
	// Sending under the lock keeps blocks ordered and stops Finish from
	// closing the channel underneath us.
	for _, block := range blocks {
		p.blockChan <- block
	}
	p.mu.Unlock()
}

// Finish flushes the partial block, waits for the encoder and closes it.
// Calling Finish more than once returns the same bytes.
func (p *Pipeline) Finish() ([]byte, error) {
	p.mu.Lock()
	if !p.finished {
		p.finished = true
		if len(p.sampleBuf) > 0 {
			partial := make([]int16, len(p.sampleBuf))
			copy(partial, p.sampleBuf)
			p.sampleBuf = nil
			p.blockChan <- partial
		}
		close(p.blockChan)
		p.mu.Unlock()

		<-p.encodeDone
		if err := p.enc.Close(); err != nil {
			p.mu.Lock()
			if p.err == nil {
				p.err = err
			}
			p.mu.Unlock()
		}
	} else {
		p.mu.Unlock()
		<-p.encodeDone
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.enc.Bytes(), nil
}

// Discard stops the encoder goroutine without closing the stream.
func (p *Pipeline) Discard() {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	p.sampleBuf = nil
	close(p.blockChan)
	p.mu.Unlock()
	<-p.encodeDone
}

func (p *Pipeline) TotalFrames() uint64 { return p.enc.TotalFrames() }
