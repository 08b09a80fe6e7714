// Package closureme holds the shared vocabulary of the closureme character
// tooling: download types, artifact kinds, the character record returned by
// the asset API, mirror transfer records, and the naming rules that map a
// logical character name to remote lookup candidates and local file names.
//
// # Name Resolution
//
// The asset API stores characters under the name of their uploaded image, so
// a logical name such as "hero" may be stored as "hero", "hero.png" or
// "hero.jpg". CandidateNames returns those variants in the order they are
// probed:
//
//	for _, candidate := range closureme.CandidateNames("hero") {
//	    // "hero", "hero.png", "hero.jpg"
//	}
//
// # Local Names
//
// Downloaded artifacts are always named from the logical name, never from the
// server path:
//
//	closureme.ArtifactFileName(closureme.ArtifactImage, "hero", "/uploads/a.jpeg")      // hero.jpeg
//	closureme.ArtifactFileName(closureme.ArtifactAppearance, "hero", "/uploads/x.txt")  // hero_appearance.txt
//	closureme.ArtifactFileName(closureme.ArtifactMemory, "hero", "/uploads/y.txt")      // hero_memory.txt
//
// See the clientcli package for the API client and the mirror package for the
// object storage jobs.
package closureme
