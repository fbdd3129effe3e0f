package rules_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/rules"
)

func TestValidateScope(t *testing.T) {
	tests := []struct {
		name    string
		scope   rules.Scope
		wantErr bool
	}{
		{name: "empty scope", scope: rules.Scope{}},
		{name: "rules only", scope: rules.Scope{Rules: rules.NewRules("Be concise")}},
		{
			name:  "rulesets only",
			scope: rules.Scope{Rulesets: []rules.Ruleset{rules.NewRuleset("Tone", rules.NewRule("Be polite"))}},
		},
		{
			name: "both rules and rulesets",
			scope: rules.Scope{
				Rules:    rules.NewRules("Be concise"),
				Rulesets: []rules.Ruleset{rules.NewRuleset("Tone", rules.NewRule("Be polite"))},
			},
			wantErr: true,
		},
		{
			name:  "unnamed ruleset",
			scope: rules.Scope{Rulesets: []rules.Ruleset{rules.NewRuleset("  ", rules.NewRule("Be polite"))}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.ValidateScope(tt.scope, "task")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsConfigurationError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResolve_StructureRulesWrappedInDefaultRuleset(t *testing.T) {
	resolved := rules.Resolve(rules.Scope{Rules: rules.NewRules("Be concise")}, rules.Scope{})

	assert.Equal(t, []rules.Ruleset{
		rules.NewRuleset("Default Ruleset", rules.NewRule("Be concise")),
	}, resolved)
}

func TestResolve_TaskRulesWrappedInAdditionalRuleset(t *testing.T) {
	resolved := rules.Resolve(rules.Scope{}, rules.Scope{Rules: rules.NewRules("Answer in French", "Cite sources")})

	require.Len(t, resolved, 1)
	assert.Equal(t, rules.AdditionalRulesetName, resolved[0].Name)
	assert.Equal(t, []string{"Answer in French", "Cite sources"}, resolved[0].Values())
}

func TestResolve_StructureScopeComesFirst(t *testing.T) {
	structure := rules.Scope{Rulesets: []rules.Ruleset{
		rules.NewRuleset("Safety", rules.NewRule("No medical advice")),
		rules.NewRuleset("Tone", rules.NewRule("Be polite")),
	}}
	task := rules.Scope{Rules: rules.NewRules("Be brief")}

	resolved := rules.Resolve(structure, task)

	names := make([]string, len(resolved))
	for i, rs := range resolved {
		names[i] = rs.Name
	}
	assert.Equal(t, []string{"Safety", "Tone", "Additional Ruleset"}, names)
}

func TestResolve_DifferentKindsPerScope(t *testing.T) {
	// Rulesets at one scope and bare rules at the other is always legal.
	structure := rules.Scope{Rules: rules.NewRules("Be concise")}
	task := rules.Scope{Rulesets: []rules.Ruleset{rules.NewRuleset("Tone", rules.NewRule("Be polite"))}}

	require.NoError(t, rules.ValidateScope(structure, "structure"))
	require.NoError(t, rules.ValidateScope(task, "task"))

	resolved := rules.Resolve(structure, task)
	require.Len(t, resolved, 2)
	assert.Equal(t, "Default Ruleset", resolved[0].Name)
	assert.Equal(t, "Tone", resolved[1].Name)
}

func TestResolve_SameNameAcrossScopesIsNotMerged(t *testing.T) {
	structure := rules.Scope{Rulesets: []rules.Ruleset{rules.NewRuleset("Tone", rules.NewRule("Be polite"))}}
	task := rules.Scope{Rulesets: []rules.Ruleset{rules.NewRuleset("Tone", rules.NewRule("Be polite"))}}

	resolved := rules.Resolve(structure, task)
	assert.Len(t, resolved, 2)
}

func TestResolve_NothingDeclared(t *testing.T) {
	assert.Empty(t, rules.Resolve(rules.Scope{}, rules.Scope{}))
}

func TestResolve_DoesNotAliasScope(t *testing.T) {
	declared := []rules.Ruleset{rules.NewRuleset("Tone", rules.NewRule("Be polite"))}
	resolved := rules.Resolve(rules.Scope{Rulesets: declared}, rules.Scope{})

	resolved[0].Rules[0] = rules.NewRule("Be rude")
	assert.Equal(t, "Be polite", declared[0].Rules[0].Value)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "rules.toml", `
[[rulesets]]
name = "Tone"
rules = ["Be polite", "Avoid jargon"]

[[rulesets]]
name = "Format"
rules = ["Use bullet points"]
`)

	scope, err := rules.LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, scope.Rules)
	require.Len(t, scope.Rulesets, 2)
	assert.Equal(t, "Tone", scope.Rulesets[0].Name)
	assert.Equal(t, []string{"Be polite", "Avoid jargon"}, scope.Rulesets[0].Values())
	assert.Equal(t, "Format", scope.Rulesets[1].Name)
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "rules.yaml", "rules:\n  - Be concise\n  - Be accurate\n")

	scope, err := rules.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rules.NewRules("Be concise", "Be accurate"), scope.Rules)
	assert.Empty(t, scope.Rulesets)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("both rules and rulesets", func(t *testing.T) {
		path := writeFile(t, "rules.toml", `
rules = ["Be concise"]

[[rulesets]]
name = "Tone"
rules = ["Be polite"]
`)
		_, err := rules.LoadFile(path)
		require.Error(t, err)
		assert.True(t, errors.IsConfigurationError(err))
	})

	t.Run("unnamed ruleset in file", func(t *testing.T) {
		path := writeFile(t, "rules.toml", `
[[rulesets]]
rules = ["Be polite"]
`)
		_, err := rules.LoadFile(path)
		require.Error(t, err)
		assert.True(t, errors.IsConfigurationError(err))
		assert.Contains(t, err.Error(), "has no name")
	})

	t.Run("unknown toml key", func(t *testing.T) {
		path := writeFile(t, "rules.toml", `rulez = ["typo"]`)
		_, err := rules.LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rulez")
	})

	t.Run("unknown yaml key", func(t *testing.T) {
		path := writeFile(t, "rules.yml", "rulez:\n  - typo\n")
		_, err := rules.LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "rules.json", `{}`)
		_, err := rules.LoadFile(path)
		require.Error(t, err)
		assert.True(t, errors.IsConfigurationError(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := rules.LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}

func TestLoadFile_EmptyYAML(t *testing.T) {
	path := writeFile(t, "rules.yaml", "")

	scope, err := rules.LoadFile(path)
	require.NoError(t, err)
	assert.True(t, scope.Empty())
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "rules.toml", `rules = ["Be concise"]`)

	w, err := rules.NewWatcher(path, nil)
	require.NoError(t, err)

	reloaded := make(chan rules.Scope, 1)
	w.OnReload(func(s rules.Scope) error {
		select {
		case reloaded <- s:
		default:
		}
		return nil
	})
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(`rules = ["Be verbose"]`), 0o644))

	select {
	case s := <-reloaded:
		assert.Equal(t, rules.NewRules("Be verbose"), s.Rules)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	path := writeFile(t, "rules.toml", `rules = ["Be concise"]`)

	w, err := rules.NewWatcher(path, nil)
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}

func TestWatcher_StopWaitsForInFlightReload(t *testing.T) {
	path := writeFile(t, "rules.toml", `rules = ["Be concise"]`)

	w, err := rules.NewWatcher(path, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	w.OnReload(func(rules.Scope) error {
		if calls.Add(1) == 1 {
			entered <- struct{}{}
			<-release
		}
		return nil
	})
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte(`rules = ["Be verbose"]`), 0o644))
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- w.Stop() }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a reload callback was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the reload finished")
	}

	require.NoError(t, os.WriteFile(path, []byte(`rules = ["Be brief"]`), 0o644))
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "no callback after Stop")
	assert.NoError(t, w.Stop(), "second Stop is a no-op")
}
