package draft

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"tcgp-draft-server/catalog"
)

func markerPool(n int) []*catalog.Item {
	pool := make([]*catalog.Item, n)
	for i := range pool {
		pool[i] = &catalog.Item{ID: fmt.Sprintf("M_%03d", i), Name: fmt.Sprintf("Marker %d", i)}
	}
	return pool
}

func roster(names ...string) []Participant {
	out := make([]Participant, len(names))
	for i, n := range names {
		out[i] = Participant{Name: n, Online: true}
	}
	return out
}

func noShuffle([]*catalog.Item) {}

func newDraft(t *testing.T, names ...string) (*Draft, []*catalog.Item) {
	t.Helper()
	pool := markerPool(HandSize * len(names))
	d, outs, err := New(pool, roster(names...), WithShuffler(noShuffle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outs) != 1 || !outs[0].Broadcast {
		t.Fatalf("expected one broadcast on start, got %+v", outs)
	}
	return d, pool
}

func mustPick(t *testing.T, d *Draft, name string, idx int) []Output {
	t.Helper()
	outs, err := d.Pick(name, idx)
	if err != nil {
		t.Fatalf("pick by %s: unexpected error: %v", name, err)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("invariant broken after pick by %s: %v", name, err)
	}
	return outs
}

func packsFor(outs []Output, name string) []Pack {
	var packs []Pack
	for _, o := range outs {
		if pr, ok := o.Event.(PackReceived); ok && o.Recipient == name {
			packs = append(packs, pr.Pack)
		}
	}
	return packs
}

func view(t *testing.T, d *Draft, name string) SeatView {
	t.Helper()
	v, err := d.View(name)
	if err != nil {
		t.Fatalf("view %s: %v", name, err)
	}
	return v
}

func TestNewRejectsOfflineRoster(t *testing.T) {
	r := roster("A", "B")
	r[1].Online = false
	_, _, err := New(markerPool(60), r)
	if !errors.Is(err, ErrPlayersNotReady) {
		t.Errorf("expected ErrPlayersNotReady, got %v", err)
	}
}

func TestNewRejectsWrongPoolSize(t *testing.T) {
	_, _, err := New(markerPool(59), roster("A", "B"))
	if !errors.Is(err, ErrPoolSize) {
		t.Errorf("expected ErrPoolSize, got %v", err)
	}
}

func TestStartPartitionsPool(t *testing.T) {
	names := []string{"A", "B", "C", "D"}
	d, _ := newDraft(t, names...)

	seen := map[string]bool{}
	for _, n := range names {
		v := view(t, d, n)
		if v.Active == nil || len(v.Active.Items) != PackSize {
			t.Fatalf("seat %s: expected a %d item active pack", n, PackSize)
		}
		if v.Reserve != Rounds-1 {
			t.Errorf("seat %s: expected %d reserve packs, got %d", n, Rounds-1, v.Reserve)
		}
		if len(v.Hand) != 0 || v.Pending != 0 {
			t.Errorf("seat %s: expected empty hand and no pending", n)
		}
		for _, it := range v.Active.Items {
			if seen[it.ID] {
				t.Errorf("item %s dealt twice", it.ID)
			}
			seen[it.ID] = true
		}
	}
	if err := d.Validate(); err != nil {
		t.Errorf("unexpected invariant error: %v", err)
	}
}

func TestTwoPlayerScenario(t *testing.T) {
	d, _ := newDraft(t, "A", "B")

	outs, _ := d.ReadyForPack("A")
	if p := packsFor(outs, "A"); len(p) != 1 || p[0].ID != 0 {
		t.Fatalf("expected pack 0 for A, got %+v", p)
	}
	if outs, _ := d.ReadyForPack("A"); len(outs) != 0 {
		t.Errorf("expected repeated ready to be a no-op, got %d outputs", len(outs))
	}
	d.ReadyForPack("B")

	outs = mustPick(t, d, "A", 0)
	if len(outs) != 0 {
		t.Errorf("expected no deliveries while B is busy, got %d", len(outs))
	}
	b := view(t, d, "B")
	if b.Pending != 1 {
		t.Fatalf("expected A's pack pending for B, got %d", b.Pending)
	}

	outs = mustPick(t, d, "B", 0)
	toA := packsFor(outs, "A")
	if len(toA) != 1 || len(toA[0].Items) != PackSize-1 || toA[0].ID != 3 {
		t.Fatalf("expected B's 9 item pack delivered to A, got %+v", toA)
	}
	toB := packsFor(outs, "B")
	if len(toB) != 1 || toB[0].ID != 0 {
		t.Fatalf("expected A's pack promoted for B, got %+v", toB)
	}

	var last []Output
	for d.Round() == 0 {
		for _, n := range []string{"A", "B"} {
			if d.Round() != 0 {
				break
			}
			if v := view(t, d, n); v.Active != nil {
				last = mustPick(t, d, n, 0)
			}
		}
	}

	if d.Round() != 1 {
		t.Fatalf("expected round 1, got %d", d.Round())
	}
	started := false
	for _, o := range last {
		if rs, ok := o.Event.(RoundStarted); ok && o.Broadcast && rs.Round == 1 {
			started = true
		}
	}
	if !started {
		t.Error("expected a round started broadcast")
	}
	for _, n := range []string{"A", "B"} {
		p := packsFor(last, n)
		if len(p) != 1 || len(p[0].Items) != PackSize {
			t.Errorf("expected fresh round pack for %s without asking, got %+v", n, p)
		}
		if v := view(t, d, n); len(v.Hand) != PackSize {
			t.Errorf("expected %d picks for %s, got %d", PackSize, n, len(v.Hand))
		}
	}
	a := view(t, d, "A")
	if a.Hand[0].ID != "M_000" || a.Hand[1].ID != "M_031" {
		t.Errorf("expected A to pick from own pack then B's, got %s, %s", a.Hand[0].ID, a.Hand[1].ID)
	}
}

func TestPassDirectionIsCyclic(t *testing.T) {
	d, _ := newDraft(t, "A", "B", "C")

	mustPick(t, d, "A", 0)
	if v := view(t, d, "B"); v.Pending != 1 {
		t.Errorf("expected A's pack queued for B, got %d pending", v.Pending)
	}
	mustPick(t, d, "C", 0)
	if v := view(t, d, "A"); v.Active == nil || v.Active.ID != 6 {
		t.Errorf("expected C's pack to wrap around to A, got %+v", v.Active)
	}
	if v := view(t, d, "C"); v.Active != nil {
		t.Error("expected C to be waiting")
	}
}

func TestStalePickIsRejectedWithoutChange(t *testing.T) {
	d, _ := newDraft(t, "A", "B")
	mustPick(t, d, "A", 0)

	_, err := d.Pick("A", 0)
	if !errors.Is(err, ErrStalePick) {
		t.Fatalf("expected ErrStalePick, got %v", err)
	}
	if v := view(t, d, "A"); len(v.Hand) != 1 {
		t.Errorf("expected hand unchanged, got %d items", len(v.Hand))
	}
	if err := d.Validate(); err != nil {
		t.Error(err)
	}
}

func TestPickValidation(t *testing.T) {
	d, _ := newDraft(t, "A", "B")

	if _, err := d.Pick("A", PackSize); !errors.Is(err, ErrBadIndex) {
		t.Errorf("expected ErrBadIndex, got %v", err)
	}
	if _, err := d.Pick("A", -1); !errors.Is(err, ErrBadIndex) {
		t.Errorf("expected ErrBadIndex, got %v", err)
	}
	if _, err := d.Pick("Z", 0); !errors.Is(err, ErrUnknownSeat) {
		t.Errorf("expected ErrUnknownSeat, got %v", err)
	}
	if v := view(t, d, "A"); len(v.Active.Items) != PackSize {
		t.Error("expected rejected picks to leave the pack intact")
	}
}

func TestReconnectResumesSameState(t *testing.T) {
	d, _ := newDraft(t, "A", "B", "C")
	for _, n := range []string{"A", "B", "C"} {
		d.ReadyForPack(n)
	}
	before := view(t, d, "B")

	if err := d.Suspend("B"); err != nil {
		t.Fatal(err)
	}
	mustPick(t, d, "A", 2)
	mustPick(t, d, "C", 5)

	mid := view(t, d, "B")
	if mid.Online {
		t.Error("expected B offline")
	}
	if mid.Pending != 1 || mid.Active.ID != before.Active.ID {
		t.Fatalf("expected B's state to keep accumulating, got %+v", mid)
	}

	if err := d.Resume("B"); err != nil {
		t.Fatal(err)
	}
	outs, _ := d.ReadyForPack("B")
	p := packsFor(outs, "B")
	if len(p) != 1 || p[0].ID != before.Active.ID || len(p[0].Items) != len(before.Active.Items) {
		t.Fatalf("expected the same pack resent, got %+v", p)
	}
	for i := range p[0].Items {
		if p[0].Items[i] != before.Active.Items[i] {
			t.Fatal("expected resent pack contents unchanged")
		}
	}
	if outs, _ := d.ReadyForPack("B"); len(outs) != 0 {
		t.Error("expected second ready after resume to be a no-op")
	}
}

func TestResumeWithoutSuspendResendsPack(t *testing.T) {
	d, _ := newDraft(t, "A", "B")
	outs, _ := d.ReadyForPack("A")
	first := packsFor(outs, "A")
	if len(first) != 1 {
		t.Fatalf("expected A's first pack, got %+v", first)
	}

	if err := d.Resume("A"); err != nil {
		t.Fatal(err)
	}
	outs, _ = d.ReadyForPack("A")
	if p := packsFor(outs, "A"); len(p) != 1 || p[0].ID != first[0].ID {
		t.Fatalf("expected pack %d resent to the new connection, got %+v", first[0].ID, p)
	}
}

func TestDeliveryToOfflineSeatWaitsForReady(t *testing.T) {
	d, _ := newDraft(t, "A", "B")
	mustPick(t, d, "A", 0)
	d.Suspend("A")

	outs := mustPick(t, d, "B", 0)
	if len(packsFor(outs, "A")) != 0 {
		t.Error("expected no delivery output for an offline seat")
	}
	if v := view(t, d, "A"); v.Active == nil || v.Active.ID != 3 {
		t.Fatalf("expected B's pack queued as A's active pack, got %+v", v.Active)
	}

	d.Resume("A")
	outs, _ = d.ReadyForPack("A")
	if p := packsFor(outs, "A"); len(p) != 1 || p[0].ID != 3 {
		t.Errorf("expected pack 3 after reconnect, got %+v", p)
	}
}

func TestRandomInterleavingsKeepInvariants(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, 7))
		names := []string{"A", "B", "C", "D", "E"}[:2+int(seed%4)]
		pool := markerPool(HandSize * len(names))
		d, _, err := New(pool, roster(names...), WithShuffler(func(items []*catalog.Item) {
			rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		}))
		if err != nil {
			t.Fatal(err)
		}

		var done *Completed
		for steps := 0; done == nil && steps < 10*len(pool); steps++ {
			var ready []string
			for _, n := range names {
				if v := view(t, d, n); v.Active != nil {
					ready = append(ready, n)
				}
			}
			if len(ready) == 0 {
				t.Fatalf("seed %d: no seat can pick but draft not finished", seed)
			}
			n := ready[rng.IntN(len(ready))]
			v := view(t, d, n)
			outs := mustPick(t, d, n, rng.IntN(len(v.Active.Items)))
			for _, o := range outs {
				if c, ok := o.Event.(Completed); ok {
					done = &c
				}
			}
		}
		if done == nil || !d.Finished() {
			t.Fatalf("seed %d: draft did not complete", seed)
		}

		picked := map[*catalog.Item]int{}
		for _, n := range names {
			if len(done.Hands[n]) != HandSize {
				t.Errorf("seed %d: %s ended with %d items", seed, n, len(done.Hands[n]))
			}
			for _, it := range done.Hands[n] {
				picked[it]++
			}
		}
		for _, it := range pool {
			if picked[it] != 1 {
				t.Fatalf("seed %d: item %s picked %d times", seed, it.ID, picked[it])
			}
		}
		if _, err := d.Pick(names[0], 0); !errors.Is(err, ErrFinished) {
			t.Errorf("expected ErrFinished after completion, got %v", err)
		}
	}
}

func TestCompletionOrderMatchesRoster(t *testing.T) {
	d, _ := newDraft(t, "Host", "Guest")
	var last []Output
	for !d.Finished() {
		for _, n := range []string{"Host", "Guest"} {
			if v := view(t, d, n); v.Active != nil {
				last = mustPick(t, d, n, len(v.Active.Items)-1)
			}
		}
	}
	c, ok := last[len(last)-1].Event.(Completed)
	if !ok {
		t.Fatalf("expected completion event, got %T", last[len(last)-1].Event)
	}
	if len(c.Order) != 2 || c.Order[0] != "Host" || c.Order[1] != "Guest" {
		t.Errorf("expected roster order, got %v", c.Order)
	}
	if d.Round() != Rounds-1 {
		t.Errorf("expected final round %d, got %d", Rounds-1, d.Round())
	}
}
