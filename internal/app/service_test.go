package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/judgeboard/internal/adapters/cache"
	"github.com/okian/judgeboard/internal/adapters/repository"
	service "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/domain/ranking"
	"github.com/okian/judgeboard/pkg/logger"
)

var fixedNow = time.Unix(1_700_100_000, 0)

// fakeStore serves artifacts from memory and can inject failures.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]map[string][]byte // participant -> key -> data
	listErr   error
	objErr    map[string]error
	fetchErr  map[string]error
	fetches   int32
	fetchWait time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:  map[string]map[string][]byte{},
		objErr:   map[string]error{},
		fetchErr: map[string]error{},
	}
}

func (f *fakeStore) put(participant, key, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects[participant] == nil {
		f.objects[participant] = map[string][]byte{}
	}
	f.objects[participant][key] = []byte(data)
}

func (f *fakeStore) ListParticipants(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.objects))
	for id := range f.objects {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) ListObjects(_ context.Context, participantID string) ([]model.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.objErr[participantID]; err != nil {
		return nil, err
	}
	out := make([]model.Object, 0, len(f.objects[participantID]))
	for k, v := range f.objects[participantID] {
		out = append(out, model.Object{Key: k, Size: int64(len(v))})
	}
	return out, nil
}

func (f *fakeStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	atomic.AddInt32(&f.fetches, 1)
	if f.fetchWait > 0 && strings.Contains(key, "/slow/") {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.fetchWait):
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[key]; err != nil {
		return nil, err
	}
	for _, objs := range f.objects {
		if data, ok := objs[key]; ok {
			return data, nil
		}
	}
	return nil, repository.ErrNotFound
}

func runKey(participant string, ts int64) string {
	return fmt.Sprintf("evaluation-results/%s/llm-judge-%s-%d/job/models/m/datasets/d/out_output.jsonl", participant, participant, ts)
}

func line(metric string, score float64) string {
	return fmt.Sprintf(`{"inputRecord":{"category":"c"},"automatedEvaluationResult":{"scores":[{"metricName":%q,"result":%v}]}}`, metric, score)
}

func newService(store repository.Store, opts ...service.Option) *service.Service {
	l := logger.New(logger.WithWriter(io.Discard))
	base := []service.Option{
		service.WithLogger(l),
		service.WithWorkerCount(4),
		service.WithClock(func() time.Time { return fixedNow }),
	}
	return service.New(store, append(base, opts...)...)
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given participants with several runs", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.put("alpha", runKey("alpha", 1700000000), line("m", 0.2))
		store.put("alpha", runKey("alpha", 1700000500), line("m", 0.9)+"\n"+line("m", 0.7))
		store.put("beta", runKey("beta", 1700000100), line("m", 0.5))
		svc := newService(store)

		Convey("When computing the leaderboard", func() {
			lb, err := svc.Leaderboard(ctx, ranking.DefaultLimit)

			Convey("Then only the latest run counts", func() {
				So(err, ShouldBeNil)
				So(lb.Count, ShouldEqual, 2)
				So(lb.Rankings[0].ParticipantID, ShouldEqual, "alpha")
				So(lb.Rankings[0].TotalScore, ShouldAlmostEqual, 0.8, 1e-12)
				So(lb.Rankings[0].EvaluationCount, ShouldEqual, 2)
				So(lb.Rankings[0].Timestamp, ShouldEqual, int64(1700000500))
				So(lb.Rankings[0].RunID, ShouldEqual, "llm-judge-alpha-1700000500")
				So(lb.Timestamp, ShouldEqual, fixedNow.Unix())
			})
		})

		Convey("When the limit is smaller than the population", func() {
			lb, err := svc.Leaderboard(ctx, 1)
			So(err, ShouldBeNil)
			So(lb.Count, ShouldEqual, 1)
			So(lb.Rankings[0].Rank, ShouldEqual, 1)
		})

		Convey("When the limit is not positive", func() {
			_, err := svc.Leaderboard(ctx, 0)
			So(errors.Is(err, ranking.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When computing twice over unchanged data", func() {
			first, _ := svc.Leaderboard(ctx, 10)
			second, _ := svc.Leaderboard(ctx, 10)
			a, _ := json.Marshal(first)
			b, _ := json.Marshal(second)

			Convey("Then the responses are byte-identical", func() {
				So(string(b), ShouldEqual, string(a))
			})
		})
	})
}

func TestService_Exclusion(t *testing.T) {
	Convey("Given participants without usable data", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.put("good", runKey("good", 1700000000), line("m", 0.4))
		store.put("norun", "evaluation-results/norun/readme.txt", "hi")
		store.put("garbage", runKey("garbage", 1700000000), "not json\n{}\n")
		store.put("stale", runKey("stale", 1700000000), line("m", 0.9))
		store.put("stale", runKey("stale", 1700000900), "\n\n")
		store.put("vanished", runKey("vanished", 1700000000), line("m", 0.3))
		store.put("vanished", runKey("vanished", 1700000900), "")
		store.fetchErr[runKey("vanished", 1700000900)] = repository.ErrNotFound
		svc := newService(store)

		Convey("When computing the leaderboard", func() {
			lb, err := svc.Leaderboard(ctx, 10)

			Convey("Then participants without records are excluded", func() {
				So(err, ShouldBeNil)
				ids := make([]string, 0, lb.Count)
				for _, e := range lb.Rankings {
					ids = append(ids, e.ParticipantID)
				}
				So(ids, ShouldResemble, []string{"good", "vanished"})
			})

			Convey("Then an empty latest run is not replaced by an older one", func() {
				_, err := svc.Rank(ctx, "stale")
				So(errors.Is(err, service.ErrParticipantNotFound), ShouldBeTrue)
			})

			Convey("Then only a vanished latest output falls back to the previous run", func() {
				So(lb.Rankings[1].Timestamp, ShouldEqual, int64(1700000000))
			})

			Convey("Then exclusions are reported in service stats", func() {
				stats := svc.GetStats()
				So(stats["lastRanked"], ShouldEqual, 2)
				So(stats["lastExcluded"], ShouldEqual, 3)
				So(stats["workerCount"], ShouldEqual, 4)
				So(stats["workerPool"], ShouldEqual, "participants")
			})
		})
	})

	Convey("Given an empty store", t, func() {
		svc := newService(newFakeStore())
		lb, err := svc.Leaderboard(context.Background(), 10)

		So(err, ShouldBeNil)
		So(lb.Count, ShouldEqual, 0)
		So(lb.Rankings, ShouldBeEmpty)
	})
}

func TestService_Failures(t *testing.T) {
	Convey("Given a store failing for one participant", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.put("ok", runKey("ok", 1700000000), line("m", 0.4))
		store.put("broken", runKey("broken", 1700000000), line("m", 0.9))
		store.put("unlistable", runKey("unlistable", 1700000000), line("m", 0.9))
		store.fetchErr[runKey("broken", 1700000000)] = errors.New("connection reset")
		store.objErr["unlistable"] = errors.New("access denied")
		svc := newService(store)

		Convey("When computing the leaderboard", func() {
			lb, err := svc.Leaderboard(ctx, 10)

			Convey("Then the failures are isolated", func() {
				So(err, ShouldBeNil)
				So(lb.Count, ShouldEqual, 1)
				So(lb.Rankings[0].ParticipantID, ShouldEqual, "ok")
				So(svc.GetStats()["lastFailed"], ShouldEqual, 2)
			})
		})
	})

	Convey("Given a participant whose artifact hangs", t, func() {
		store := newFakeStore()
		store.put("fast", runKey("fast", 1700000000), line("m", 0.4))
		store.put("slow", runKey("slow", 1700000000), line("m", 0.9))
		store.fetchWait = time.Minute
		svc := newService(store, service.WithParticipantTimeout(30*time.Millisecond))

		Convey("When computing the leaderboard", func() {
			start := time.Now()
			lb, err := svc.Leaderboard(context.Background(), 10)

			Convey("Then the request completes within the bound without it", func() {
				So(err, ShouldBeNil)
				So(time.Since(start), ShouldBeLessThan, 5*time.Second)
				So(lb.Count, ShouldEqual, 1)
				So(lb.Rankings[0].ParticipantID, ShouldEqual, "fast")
			})
		})
	})

	Convey("Given a store whose listing fails", t, func() {
		store := newFakeStore()
		store.listErr = errors.New("bucket unreachable")
		svc := newService(store)

		Convey("Then the request fails as a whole", func() {
			_, err := svc.Leaderboard(context.Background(), 10)
			So(errors.Is(err, service.ErrListParticipants), ShouldBeTrue)
		})
	})
}

func TestService_RankAndStats(t *testing.T) {
	Convey("Given three ranked participants", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.put("a", runKey("a", fixedNow.Add(-time.Hour).Unix()), line("m", 0.9))
		store.put("b", runKey("b", fixedNow.Add(-72*time.Hour).Unix()), line("m", 0.6))
		store.put("c", runKey("c", fixedNow.Add(-2*time.Hour).Unix()), line("m", 0.3))
		svc := newService(store)

		Convey("When looking up a rank", func() {
			e, err := svc.Rank(ctx, "c")
			So(err, ShouldBeNil)
			So(e.Rank, ShouldEqual, 3)
		})

		Convey("When looking up an unknown participant", func() {
			_, err := svc.Rank(ctx, "nobody")
			So(errors.Is(err, service.ErrParticipantNotFound), ShouldBeTrue)
		})

		Convey("When computing stats", func() {
			st, err := svc.Stats(ctx)
			So(err, ShouldBeNil)
			So(st.TotalParticipants, ShouldEqual, 3)
			So(st.TopScore, ShouldEqual, 0.9)
			So(st.AverageScore, ShouldAlmostEqual, 0.6, 1e-9)
			So(st.RecentEvaluations, ShouldEqual, 2)
		})
	})
}

func TestService_Cache(t *testing.T) {
	Convey("Given a service with a summary cache", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.put("a", runKey("a", 1700000000), line("m", 0.9))
		store.put("b", runKey("b", 1700000000), "")
		c, err := cache.NewSummaries(16)
		So(err, ShouldBeNil)
		svc := newService(store, service.WithSummaryCache(c))

		Convey("When reading twice", func() {
			first, err := svc.Leaderboard(ctx, 10)
			So(err, ShouldBeNil)
			fetched := atomic.LoadInt32(&store.fetches)
			second, err := svc.Leaderboard(ctx, 10)
			So(err, ShouldBeNil)

			Convey("Then unchanged artifacts are not fetched again", func() {
				So(atomic.LoadInt32(&store.fetches), ShouldEqual, fetched)
				So(second.Rankings, ShouldResemble, first.Rankings)
				So(second.Count, ShouldEqual, 1)
			})
		})
	})
}

func TestService_ExtremeScores(t *testing.T) {
	Convey("Given a participant whose scores overflow a plain sum", t, func() {
		store := newFakeStore()
		store.put("good", runKey("good", 1700000000), line("m", 0.9))
		store.put("huge", runKey("huge", 1700000000), line("m", 1e308)+"\n"+line("m", 1e308))
		svc := newService(store)

		Convey("When computing the leaderboard", func() {
			lb, err := svc.Leaderboard(context.Background(), 10)

			Convey("Then both are ranked with finite scores and the response encodes", func() {
				So(err, ShouldBeNil)
				So(lb.Count, ShouldEqual, 2)
				So(lb.Rankings[0].ParticipantID, ShouldEqual, "huge")
				So(lb.Rankings[0].TotalScore, ShouldEqual, 1e308)
				_, err := json.Marshal(lb)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestService_BlobStore(t *testing.T) {
	Convey("Given a memory bucket in the judge's layout", t, func() {
		ctx := context.Background()
		l := logger.New(logger.WithWriter(io.Discard))
		store, err := repository.OpenBlobStore(ctx, "mem://", repository.WithLogger(l))
		So(err, ShouldBeNil)
		defer store.Close()

		So(store.Put(ctx, runKey("team-a", 1700000000), []byte(line("Builtin.Correctness", 0.5))), ShouldBeNil)
		So(store.Put(ctx, runKey("team-a", 1700000500), []byte(line("Builtin.Correctness", 1))), ShouldBeNil)
		So(store.Put(ctx, runKey("team-b", 1700000200), []byte(line("Builtin.Correctness", 0.75))), ShouldBeNil)
		svc := newService(store)

		Convey("Then the leaderboard is computed end to end", func() {
			lb, err := svc.Leaderboard(ctx, 50)
			So(err, ShouldBeNil)
			So(lb.Count, ShouldEqual, 2)
			So(lb.Rankings[0].ParticipantID, ShouldEqual, "team-a")
			So(lb.Rankings[0].MetricScores, ShouldResemble, map[string]float64{"Builtin.Correctness": 1})
			So(lb.Rankings[1].ParticipantID, ShouldEqual, "team-b")
		})
	})
}
