package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/studentdash/internal/adapters/repository"
	"github.com/okian/studentdash/internal/domain/policy"
	. "github.com/smartystreets/goconvey/convey"
)

func stores(t *testing.T) map[string]func() repository.KV {
	return map[string]func() repository.KV{
		"file": func() repository.KV {
			return repository.NewFileKV(filepath.Join(t.TempDir(), "nested", "settings.json"))
		},
		"sqlite": func() repository.KV {
			kv, err := repository.OpenSQLiteKV(filepath.Join(t.TempDir(), "settings.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return kv
		},
	}
}

func TestKV(t *testing.T) {
	for name, open := range stores(t) {
		Convey("Given an empty "+name+" store", t, func() {
			kv := open()
			defer func() { _ = kv.Close() }()
			ctx := context.Background()

			Convey("Then a missing key is ErrNotFound", func() {
				_, err := kv.Get(ctx, "nope")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("When values are set and overwritten", func() {
				So(kv.Set(ctx, "a", "1"), ShouldBeNil)
				So(kv.Set(ctx, "b", "2"), ShouldBeNil)
				So(kv.Set(ctx, "a", "3"), ShouldBeNil)

				Convey("Then the latest values are returned", func() {
					a, err := kv.Get(ctx, "a")
					So(err, ShouldBeNil)
					So(a, ShouldEqual, "3")
					b, err := kv.Get(ctx, "b")
					So(err, ShouldBeNil)
					So(b, ShouldEqual, "2")
				})
			})
		})
	}
}

func TestPolicyStore(t *testing.T) {
	Convey("Given a policy store over a file", t, func() {
		path := filepath.Join(t.TempDir(), "settings.json")
		kv := repository.NewFileKV(path)
		store := repository.NewPolicyStore(kv)
		ctx := context.Background()

		Convey("Then nothing stored yields defaults without error", func() {
			st, err := store.Load(ctx)
			So(err, ShouldBeNil)
			So(st, ShouldResemble, policy.Defaults())
		})

		Convey("When valid settings are saved", func() {
			st := policy.Defaults()
			st.Reading = policy.Policy{Metric: policy.ReadingPracticedToday, Target: policy.Flag(true)}
			So(store.Save(ctx, st), ShouldBeNil)

			Convey("Then they load back", func() {
				got, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, st)
			})
		})

		Convey("Then invalid settings are refused", func() {
			st := policy.Defaults()
			st.Math.Metric = "streak"
			So(errors.Is(store.Save(ctx, st), policy.ErrInvalidPolicy), ShouldBeTrue)
		})

		Convey("When the stored value is unparseable", func() {
			So(kv.Set(ctx, repository.PolicyKey, "{not json"), ShouldBeNil)
			st, err := store.Load(ctx)

			Convey("Then defaults come back with ErrCorrupt", func() {
				So(errors.Is(err, repository.ErrCorrupt), ShouldBeTrue)
				So(st, ShouldResemble, policy.Defaults())
			})
		})

		Convey("When the whole file is garbage", func() {
			So(os.WriteFile(path, []byte("garbage"), 0o600), ShouldBeNil)
			st, err := store.Load(ctx)
			So(errors.Is(err, repository.ErrCorrupt), ShouldBeTrue)
			So(st, ShouldResemble, policy.Defaults())

			Convey("Then a save repairs it", func() {
				So(store.Save(ctx, policy.Defaults()), ShouldBeNil)
				_, err := store.Load(ctx)
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a policy store over SQLite", t, func() {
		kv, err := repository.OpenSQLiteKV(filepath.Join(t.TempDir(), "settings.db"))
		So(err, ShouldBeNil)
		store := repository.NewPolicyStore(kv)
		defer func() { _ = store.Close() }()

		st := policy.Defaults()
		st.Vocab = policy.Policy{Metric: policy.VocabAccuracy, Target: policy.Num(90)}
		So(store.Save(context.Background(), st), ShouldBeNil)
		got, err := store.Load(context.Background())
		So(err, ShouldBeNil)
		So(got.Vocab, ShouldResemble, st.Vocab)
	})
}
