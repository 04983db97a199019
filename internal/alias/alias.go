// Package alias normalizes free-text tokens (stat names, damage types,
// body parts) to the canonical identifiers the rules backend expects.
// Tables carry abbreviations, French and English synonyms and symbols;
// every canonical identifier is registered as an alias of itself.
package alias

import "strings"

// Table maps surface tokens to one canonical identifier per domain.
// Lookup is case-insensitive and whitespace-trimmed.
type Table map[string]string

// Lookup resolves token under the strict policy: unknown tokens yield
// ok == false.
func (t Table) Lookup(token string) (string, bool) {
	v, ok := t[normalize(token)]
	return v, ok
}

// Resolve resolves token under the permissive policy: unknown tokens pass
// through normalized, so the backend can do its own validation.
func (t Table) Resolve(token string) string {
	norm := normalize(token)
	if v, ok := t[norm]; ok {
		return v
	}
	return norm
}

func normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

// Special covers the seven S.P.E.C.I.A.L. abilities.
var Special = Table{
	"s": "strength", "str": "strength", "for": "strength", "force": "strength", "strength": "strength",
	"p": "perception", "per": "perception", "perception": "perception",
	"e": "endurance", "end": "endurance", "endurance": "endurance",
	"c": "charisma", "cha": "charisma", "charisme": "charisma", "charisma": "charisma",
	"i": "intelligence", "int": "intelligence", "intelligence": "intelligence",
	"a": "agility", "agl": "agility", "agilité": "agility", "agility": "agility",
	"l": "luck", "lck": "luck", "chance": "luck", "luck": "luck",
}

// Skills covers the learnable skills.
var Skills = Table{
	"sg": "small_guns", "small": "small_guns", "light": "small_guns", "léger": "small_guns",
	"légère": "small_guns", "légères": "small_guns", "small_guns": "small_guns",
	"bg": "big_guns", "big": "big_guns", "heavy": "big_guns", "lourd": "big_guns",
	"lourde": "big_guns", "lourdes": "big_guns", "big_guns": "big_guns",
	"ew": "energy_weapons", "energy": "energy_weapons", "energie": "energy_weapons",
	"laser": "energy_weapons", "plasma": "energy_weapons", "energy_weapons": "energy_weapons",
	"un": "unarmed", "hand": "unarmed", "main": "unarmed", "mains": "unarmed",
	"cac": "unarmed", "contact": "unarmed", "unarmed": "unarmed",
	"mw": "melee_weapons", "melee": "melee_weapons", "mêlée": "melee_weapons", "melee_weapons": "melee_weapons",
	"th": "throwing", "throw": "throwing", "jet": "throwing", "lance": "throwing",
	"lancer": "throwing", "grenade": "throwing", "throwing": "throwing",
	"at": "athletics", "ath": "athletics", "athletism": "athletics", "athlétisme": "athletics", "athletics": "athletics",
	"dt": "detection", "detect": "detection", "search": "detection", "détection": "detection",
	"recherche": "detection", "rechercher": "detection", "trouver": "detection", "detection": "detection",
	"fa": "first_aid", "first": "first_aid", "aid": "first_aid", "premiers": "first_aid",
	"secours": "first_aid", "first_aid": "first_aid",
	"do": "doctor", "doc": "doctor", "med": "doctor", "médecin": "doctor", "médecine": "doctor", "doctor": "doctor",
	"ch": "chems", "chem": "chems", "chimie": "chems", "pharma": "chems", "pharmacologie": "chems", "chems": "chems",
	"sn": "sneak", "discret": "sneak", "discrétion": "sneak", "cacher": "sneak", "sneak": "sneak",
	"lp": "lockpick", "lock": "lockpick", "crochetage": "lockpick", "lockpick": "lockpick",
	"st": "steal", "pp": "steal", "vol": "steal", "voler": "steal", "pickpocket": "steal", "steal": "steal",
	"tr": "traps", "trap": "traps", "piège": "traps", "pièges": "traps", "traps": "traps",
	"ex": "explosives", "exp": "explosives", "explosif": "explosives", "explosifs": "explosives", "explosives": "explosives",
	"sc": "science", "science": "science",
	"rp": "repair", "rep": "repair", "mech": "repair", "meca": "repair", "méca": "repair",
	"mécanisme": "repair", "réparer": "repair", "réparation": "repair", "craft": "repair", "repair": "repair",
	"cp": "computers", "comp": "computers", "info": "computers", "prog": "computers",
	"programmer": "computers", "pirater": "computers", "piratage": "computers",
	"hacker": "computers", "hacking": "computers", "computers": "computers",
	"el": "electronics", "elec": "electronics", "electro": "electronics", "electronics": "electronics",
	"sp": "speech", "discours": "speech", "pe": "speech", "persuader": "speech",
	"parler": "speech", "convaincre": "speech", "speech": "speech",
	"de": "deception", "tromper": "deception", "tromperie": "deception", "mentir": "deception", "deception": "deception",
	"ba": "barter", "marchandage": "barter", "commerce": "barter", "négocier": "barter", "barter": "barter",
	"su": "survival", "survie": "survival", "outdoorsman": "survival", "survival": "survival",
	"kn": "knowledge", "connaissance": "knowledge", "culture": "knowledge", "knowledge": "knowledge",
}

// Stats is the union of Special and Skills, used by roll commands that
// accept either.
var Stats = merge(Special, Skills)

// BodyParts covers hit locations.
var BodyParts = Table{
	"t": "torso", "torse": "torso", "corps": "torso", "torso": "torso",
	"l": "legs", "j": "legs", "jambe": "legs", "jambes": "legs",
	"p": "legs", "pied": "legs", "pieds": "legs", "legs": "legs",
	"a": "arms", "b": "arms", "bras": "arms", "m": "arms", "main": "arms", "mains": "arms", "arms": "arms",
	"h": "head", "tête": "head", "head": "head",
	"e": "eyes", "oeil": "eyes", "y": "eyes", "yeux": "eyes", "eyes": "eyes",
}

// Damages covers damage and healing types, including survival meters and
// money/karma adjustments.
var Damages = Table{
	"n": "normal", "-": "normal", "normal": "normal",
	"l": "laser", "laser": "laser",
	"p": "plasma", "plasma": "plasma",
	"e": "explosive", "exp": "explosive", "explosive": "explosive",
	"f": "fire", "feu": "fire", "fire": "fire",
	"ps": "poison", "poison": "poison",
	"r": "radiation", "rad": "radiation", "radiation": "radiation",
	"gc": "gas_contact", "gas_contact": "gas_contact",
	"gi": "gas_inhaled", "gas_inhaled": "gas_inhaled",
	"raw": "raw",
	"t":   "thirst", "soif": "thirst", "+t": "thirst", "thirst": "thirst",
	"h": "hunger", "faim": "hunger", "+h": "hunger", "hunger": "hunger",
	"s": "sleep", "sommeil": "sleep", "+s": "sleep", "sleep": "sleep",
	"ht": "heal_thirst", "boire": "heal_thirst", "-t": "heal_thirst", "heal_thirst": "heal_thirst",
	"hh": "heal_hunger", "manger": "heal_hunger", "-h": "heal_hunger", "heal_hunger": "heal_hunger",
	"hs": "heal_sleep", "dormir": "heal_sleep", "-s": "heal_sleep", "heal_sleep": "heal_sleep",
	"+": "heal", "soin": "heal", "heal": "heal",
	"hr": "heal_rad", "heal_rad": "heal_rad",
	"gain": "add_money", "money": "add_money", "argent": "add_money", "+$": "add_money", "add_money": "add_money",
	"loss": "remove_money", "perte": "remove_money", "-$": "remove_money", "remove_money": "remove_money",
	"good": "add_karma", "karma": "add_karma", "add_karma": "add_karma",
	"evil": "remove_karma", "bad": "remove_karma", "remove_karma": "remove_karma",
}

func merge(tables ...Table) Table {
	out := Table{}
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}
