package runs

import (
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/HimoriK/HexManiacAdvance/model"
)

// RunFilter decides whether a pointer destination may hold the array.
type RunFilter func(model.Run) bool

// MinSources accepts destinations with at least n pointers to them.
func MinSources(n int) RunFilter {
	return func(r model.Run) bool { return len(r.PointerSources()) >= n }
}

// Search looks for data matching format somewhere in the buffer.
//
// Without a length token every named or pointed-to region is tried as a start
// and the one holding the most consecutive valid elements wins; the count
// found is appended to the returned run's format string. With a length token
// the destinations of stored pointers are tried in address order and the
// first holding exactly that many valid elements wins. filter, if not nil,
// restricts which destinations are tried. ErrNotFound is returned when no
// candidate matches.
//
// The returned run is not registered with m.
func Search(m model.Model, lk *Lookup, format string, filter RunFilter) (ArrayRun, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return ArrayRun{}, err
	}

	var result ArrayRun
	switch f.Mode {
	case LengthAuto:
		start, count := standardSearch(m, lk, f)
		if count == 0 {
			return ArrayRun{}, ErrNotFound
		}
		text := format + strconv.Itoa(count)
		f.Mode, f.Count, f.Source = LengthFixed, count, text
		result = newArrayRun(f, text, start, count, sourcesAt(m, start))
	default:
		count := f.Count
		if f.Mode == LengthLinked {
			if count = linkedCount(m, f.LengthAnchor); count == 0 {
				return ArrayRun{}, ErrNotFound
			}
		}
		start := knownLengthSearch(m, lk, f, count, filter)
		if start == model.NULL {
			return ArrayRun{}, ErrNotFound
		}
		result = newArrayRun(f, format, start, count, sourcesAt(m, start))
	}

	log.Debug().
		Str("format", result.FormatString()).
		Int("start", result.Start()).
		Int("elements", result.ElementCount()).
		Msg("array found")
	return result.RecomputeInnerSources(m), nil
}

// standardSearch returns the anchored start with the longest valid run of elements.
func standardSearch(m model.Model, lk *Lookup, f Format) (best, bestCount int) {
	best = model.NULL
	for run := m.NextAnchor(0); run.Start() < m.Count(); run = m.NextAnchor(model.End(run)) {
		if _, ok := run.(ArrayRun); ok {
			continue
		}
		limit := m.NextAnchor(run.Start() + 1).Start()
		count := 0
		for ElementMatches(m, lk, run.Start()+count*f.ElementLength, f.Segments, limit) {
			count++
		}
		if count > bestCount {
			best, bestCount = run.Start(), count
			log.Debug().Int("start", best).Int("elements", count).Msg("search candidate")
		}
	}
	return best, bestCount
}

// knownLengthSearch returns the first pointer destination holding count valid elements.
func knownLengthSearch(m model.Model, lk *Lookup, f Format, count int, filter RunFilter) int {
	seen := make(map[int]bool)
	for _, run := range m.Runs() {
		if _, ok := run.(model.PointerRun); !ok {
			continue
		}
		destination := m.ReadPointer(run.Start())
		if destination < 0 || destination >= m.Count() || seen[destination] {
			continue
		}
		seen[destination] = true

		target := m.NextRun(destination)
		if _, ok := target.(ArrayRun); ok && target.Start() <= destination {
			continue
		}
		if target.Start() != destination {
			target = model.NewNoInfoRun(destination, nil)
		}
		if filter != nil && !filter(target) {
			continue
		}

		limit := nextArrayStart(m, destination+1)
		matched := true
		for i := 0; i < count && matched; i++ {
			matched = ElementMatches(m, lk, destination+i*f.ElementLength, f.Segments, limit)
		}
		if matched {
			return destination
		}
	}
	return model.NULL
}

func sourcesAt(m model.Model, address int) []int {
	if run := m.NextRun(address); run.Start() == address {
		return run.PointerSources()
	}
	return nil
}
