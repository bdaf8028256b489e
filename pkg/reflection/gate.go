package reflection

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
	"github.com/viccon/sturdyc"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

var errGateDenied = errors.New("suppression denied")

// gate decides whether a caller may suppress access checks on a member.
// Positive decisions are memoised: exports and opens are only ever added,
// so an allowed decision stays allowed. Denials are always recomputed.
// A memo hit skips decide, so the AccessLogger hears about a crossing once
// per (caller, declaring class, modifiers).
type gate struct {
	oracle ModuleOracle
	logger AccessLogger
	memo   *sturdyc.Client[bool]
}

func newGate(oracle ModuleOracle, logger AccessLogger, cfg GateCacheConfig) *gate {
	g := &gate{oracle: oracle, logger: logger}
	if cfg.Enabled {
		// the eviction goroutine never exits; capacity eviction bounds the memo
		g.memo = sturdyc.New[bool](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage,
			sturdyc.WithNoContinuousEvictions(),
		)
	}
	return g
}

// gateKey names a decision by the classes' defining loader, module and
// binary name. The memo holds no reference to the classes themselves.
func gateKey(caller, declaring *vm.Class, mod uint16) string {
	return classKey(caller) + ">" + classKey(declaring) + ":" + strconv.FormatUint(uint64(mod), 10)
}

func classKey(c *vm.Class) string {
	return c.Loader + "/" + strconv.FormatUint(c.Module.ID(), 10) + "/" + c.Name
}

// canSuppress runs the decision, consulting the memo first.
func (g *gate) canSuppress(caller, declaring *vm.Class, mod uint16) bool {
	if g.memo == nil {
		return g.decide(caller, declaring, mod)
	}
	allowed, err := g.memo.GetOrFetch(context.Background(), gateKey(caller, declaring, mod), func(context.Context) (bool, error) {
		if g.decide(caller, declaring, mod) {
			return true, nil
		}
		return false, errGateDenied
	})
	return err == nil && allowed
}

// decide applies the suppression rules in order; the first match wins.
func (g *gate) decide(caller, declaring *vm.Class, mod uint16) bool {
	callerModule, declaringModule := caller.Module, declaring.Module
	if callerModule == declaringModule {
		return true
	}
	if g.oracle.IsPlatform(callerModule) {
		return true
	}
	if !g.oracle.IsNamed(declaringModule) {
		return true
	}

	pn := declaring.PackageName()
	crossing := !g.oracle.IsNamed(callerModule)
	if declaring.IsPublic() && g.oracle.IsExported(declaringModule, pn, callerModule) {
		if isPublic(mod) || (isProtected(mod) && isStatic(mod) && caller.IsSubclassOf(declaring)) {
			if crossing {
				g.logger.LogIfExported(caller, declaring)
			}
			return true
		}
	}
	if g.oracle.IsOpen(declaringModule, pn, callerModule) {
		if crossing {
			g.logger.LogIfOpened(caller, declaring)
		}
		return true
	}
	return false
}

// deniedError explains a denial by naming the missing exports or opens.
func (g *gate) deniedError(caller *vm.Class, rec *memberRecord, member string) *goerrors.Error {
	declaring := rec.declaring
	relation := "opens"
	if declaring.IsPublic() && isPublic(rec.modifiers) {
		relation = "exports"
	}
	what := ""
	if rec.kind == kindField {
		what = "field "
	}
	msg := fmt.Sprintf("Unable to make %s%s accessible: %s does not %q to %s",
		what, member, declaring.Module, relation+" "+declaring.PackageName(), caller.Module)
	return suppressionDenied(msg, map[string]any{
		"caller":          caller.JavaName(),
		"declaring_class": declaring.JavaName(),
		"modifiers":       ModifierString(rec.modifiers),
		"member":          member,
	})
}
