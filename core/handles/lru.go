package handles

import (
	"container/list"
)

type LRUOpts struct {
	// Size is the maximum number of tracked events (not records).
	// All handler records for one event occupy a single slot.
	Size int
}

type lruEntry struct {
	eventID string
	records map[int]Record
}

type getReq struct {
	eventID     string
	handlerCode int
	resp        chan getResp
}

type getResp struct {
	rec Record
	ok  bool
}

// LRU is an in-memory Cache with least-recently-used eviction, grouped
// by event ID. All operations are serialized through a single goroutine,
// so it is safe for concurrent use from all shard workers without
// external locking.
type LRU struct {
	getCh    chan getReq
	putCh    chan Record
	removeCh chan string
}

func NewLRU(opts LRUOpts) *LRU {
	if opts.Size <= 0 {
		opts.Size = 1024
	}

	l := &LRU{
		getCh:    make(chan getReq),
		putCh:    make(chan Record),
		removeCh: make(chan string),
	}

	go l.run(opts.Size)

	return l
}

func (l *LRU) Get(eventID string, handlerCode int) (Record, bool) {
	resp := make(chan getResp)
	l.getCh <- getReq{eventID: eventID, handlerCode: handlerCode, resp: resp}
	r := <-resp
	return r.rec, r.ok
}

func (l *LRU) Put(rec Record) {
	l.putCh <- rec
}

func (l *LRU) Remove(eventID string) {
	l.removeCh <- eventID
}

func (l *LRU) run(size int) {
	ll := list.New()
	byEvent := make(map[string]*list.Element)

	for {
		select {
		case req := <-l.getCh:
			ele, ok := byEvent[req.eventID]
			if !ok {
				req.resp <- getResp{}
				continue
			}
			ll.MoveToFront(ele)
			rec, ok := ele.Value.(*lruEntry).records[req.handlerCode]
			req.resp <- getResp{rec: rec, ok: ok}

		case rec := <-l.putCh:
			if ele, ok := byEvent[rec.EventID]; ok {
				ll.MoveToFront(ele)
				entry := ele.Value.(*lruEntry)
				// write-once: first record for a handler wins
				if _, exists := entry.records[rec.HandlerCode]; !exists {
					entry.records[rec.HandlerCode] = rec
				}
				continue
			}
			ele := ll.PushFront(&lruEntry{
				eventID: rec.EventID,
				records: map[int]Record{rec.HandlerCode: rec},
			})
			byEvent[rec.EventID] = ele
			if ll.Len() > size {
				last := ll.Back()
				if last != nil {
					ll.Remove(last)
					delete(byEvent, last.Value.(*lruEntry).eventID)
				}
			}

		case eventID := <-l.removeCh:
			if ele, ok := byEvent[eventID]; ok {
				ll.Remove(ele)
				delete(byEvent, eventID)
			}
		}
	}
}

var _ Cache = (*LRU)(nil)
