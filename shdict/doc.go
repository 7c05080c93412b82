// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shdict shares compiled dictionaries between processes.
//
// Compiling a large dictionary is expensive, and every process that
// uses it would otherwise hold its own copy in memory. A [Cache]
// publishes compiled dictionaries as files in a shared directory and
// attaches to them with read-only memory mappings, so all processes
// share a single copy:
//
//	cache, err := shdict.Open("/var/cache/ispell", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cache.Close()
//
//	h, err := cache.GetOrBuild(shdict.ID(dictPath, affixPath), func() ([]byte, error) {
//		d, err := ispell.Compile(dictPath, affixPath, nil)
//		if err != nil {
//			return nil, err
//		}
//		return d.Blob(), nil
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer h.Close()
//
//	d, err := ispell.Load(h.Bytes(), nil)
//
// Coordination uses a file lock, so the cache works between unrelated
// processes. Dictionaries are reference counted and removed when the
// last process detaches.
package shdict
